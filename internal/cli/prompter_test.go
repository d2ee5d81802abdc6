package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Ask(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n  alice@example.com  \n"), &out)

	answer, err := p.Ask(context.Background(), "Email", false)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", answer)
	assert.Contains(t, out.String(), "A value is required")
}

func TestPrompter_AskAllowEmpty(t *testing.T) {
	p := NewPrompter(strings.NewReader("\n"), io.Discard)

	answer, err := p.Ask(context.Background(), "Note", true)
	require.NoError(t, err)
	assert.Empty(t, answer)
}

func TestPrompter_AskEOF(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), io.Discard)

	_, err := p.Ask(context.Background(), "Email", false)
	assert.Error(t, err)
}

func TestPrompter_AskLastLineWithoutNewline(t *testing.T) {
	p := NewPrompter(strings.NewReader("secret"), io.Discard)

	answer, err := p.Ask(context.Background(), "Password", false)
	require.NoError(t, err)
	assert.Equal(t, "secret", answer)
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes", input: "YES\n", want: true},
		{name: "no", input: "n\n", def: true, want: false},
		{name: "empty uses default true", input: "\n", def: true, want: true},
		{name: "empty uses default false", input: "\n", def: false, want: false},
		{name: "invalid then yes", input: "maybe\ny\n", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "Discard session?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrompter_ConfirmShowsDefault(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n"), &out)

	_, err := p.Confirm(context.Background(), "Continue?", true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[Y/n]")
}

func TestPrompter_Canceled(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()

	p := NewPrompter(r, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Ask(ctx, "Email", false)
	assert.True(t, errors.Is(err, ErrInputCancelled))
}
