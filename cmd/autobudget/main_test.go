package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	tuitest "github.com/Veraticus/autobudget/internal/tui/testing"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliEnv runs the root command against a fake backend with an isolated
// home directory and session database.
type cliEnv struct {
	t      *testing.T
	dbPath string
	input  string
}

func newCLIEnv(t *testing.T, backend http.HandlerFunc) *cliEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AUTOBUDGET_TOKEN", "")
	t.Setenv("AUTOBUDGET_API_URL", "")

	viper.Reset()
	t.Cleanup(viper.Reset)

	env := &cliEnv{t: t, dbPath: filepath.Join(home, "sessions.db")}
	viper.Set("database", env.dbPath)
	viper.Set("auth.token", "test-token")

	if backend != nil {
		server := httptest.NewServer(backend)
		t.Cleanup(server.Close)
		viper.Set("api.base_url", server.URL)
	}
	return env
}

func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(e.input))

	err := root.Execute()
	return tuitest.StripANSI(out.String()), err
}

func TestVersionCmd(t *testing.T) {
	env := newCLIEnv(t, nil)

	out, err := env.run("version")
	require.NoError(t, err)
	assert.Equal(t, "autobudget dev\n", out)
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	env := newCLIEnv(t, nil)

	_, err := env.run("--log-level", "loud", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"auth", "categories", "expenses", "import", "analytics", "version"} {
		assert.Contains(t, names, want)
	}
}
