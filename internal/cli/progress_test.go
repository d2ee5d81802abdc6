package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadReader(t *testing.T) {
	var out bytes.Buffer
	payload := strings.Repeat("x", 2048)

	bar := NewUploadProgress(int64(len(payload)), &out, "Uploading")
	data, err := io.ReadAll(UploadReader(strings.NewReader(payload), bar))
	require.NoError(t, err)

	assert.Equal(t, payload, string(data))
	assert.Equal(t, int64(len(payload)), bar.State().CurrentNum)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "-12.50", FormatAmount(12.5, false))
	assert.Contains(t, FormatAmount(3, true), "+3.00")
}

func TestRenderBox(t *testing.T) {
	box := RenderBox("Signed in", "Token file: /tmp/token.json\nRefresh token: present")

	lines := strings.Split(box, "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "Signed in")
	assert.Contains(t, lines[2], "Token file: /tmp/token.json")
	assert.Contains(t, lines[3], "Refresh token: present")
}

func TestFormatHelpers(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), SuccessIcon+" done")
	assert.Contains(t, FormatError("failed"), ErrorIcon+" failed")
	assert.Contains(t, FormatTitle("Import preview: march.csv"), "Import preview: march.csv")
}
