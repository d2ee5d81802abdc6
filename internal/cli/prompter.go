package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Prompter asks simple questions on a terminal.
type Prompter struct {
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex
}

// NewPrompter creates a prompter reading answers from r and writing
// questions to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// readLine reads one line, returning early if ctx is canceled. A read that
// is abandoned keeps running in the background until input arrives.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		value, err := p.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil && (!errors.Is(res.err, io.EOF) || res.value == "") {
			if errors.Is(res.err, io.EOF) {
				return "", fmt.Errorf("input terminated")
			}
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// Ask prints prompt and returns the trimmed answer. Empty answers are
// repeated until allowEmpty.
func (p *Prompter) Ask(ctx context.Context, prompt string, allowEmpty bool) (string, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		answer, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}
		if answer != "" || allowEmpty {
			return answer, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("A value is required. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

// Confirm asks a yes/no question. An empty answer returns def.
func (p *Prompter) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	suffix := " [y/N]"
	if def {
		suffix = " [Y/n]"
	}

	for {
		answer, err := p.Ask(ctx, question+suffix, true)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes", "j", "ja":
			return true, nil
		case "n", "no", "nein":
			return false, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please answer y or n.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}
