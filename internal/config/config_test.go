package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/autobudget/internal/api"
	"github.com/Veraticus/autobudget/internal/auth"
	"github.com/Veraticus/autobudget/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("AUTOBUDGET_TEST_DIR", "/srv/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde only", in: "~", want: home},
		{name: "tilde prefix", in: "~/.config/autobudget", want: filepath.Join(home, ".config/autobudget")},
		{name: "env var", in: "$AUTOBUDGET_TEST_DIR/sessions.db", want: "/srv/data/sessions.db"},
		{name: "plain", in: "/tmp/x", want: "/tmp/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadAPIConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		resetViper(t)
		t.Setenv("AUTOBUDGET_API_URL", "")

		cfg, err := LoadAPIConfig()
		require.NoError(t, err)
		assert.Equal(t, api.DefaultConfig(), cfg)
	})

	t.Run("environment", func(t *testing.T) {
		resetViper(t)
		t.Setenv("AUTOBUDGET_API_URL", "https://budget.example.com/api/v1")

		cfg, err := LoadAPIConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://budget.example.com/api/v1", cfg.BaseURL)
	})

	t.Run("viper wins over environment", func(t *testing.T) {
		resetViper(t)
		t.Setenv("AUTOBUDGET_API_URL", "https://env.example.com")
		viper.Set("api.base_url", "https://viper.example.com")
		viper.Set("api.timeout", "5s")

		cfg, err := LoadAPIConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://viper.example.com", cfg.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		resetViper(t)
		viper.Set("api.timeout", "0s")

		_, err := LoadAPIConfig()
		assert.True(t, errors.Is(err, common.ErrInvalidConfig))
	})
}

func TestLoadAuthConfig(t *testing.T) {
	t.Run("static token from environment", func(t *testing.T) {
		resetViper(t)
		t.Setenv("AUTOBUDGET_TOKEN", "env-token")

		cfg, err := LoadAuthConfig()
		require.NoError(t, err)
		assert.Equal(t, "env-token", cfg.StaticToken)
		assert.Equal(t, ExpandPath(DefaultTokenFile), cfg.TokenFile)
		assert.Equal(t, 8085, cfg.RedirectPort)
	})

	t.Run("viper settings", func(t *testing.T) {
		resetViper(t)
		t.Setenv("AUTOBUDGET_TOKEN", "")
		viper.Set("auth.client_id", "cli")
		viper.Set("auth.token_url", "https://id.example.com/token")
		viper.Set("auth.scopes", []string{"openid"})
		viper.Set("auth.redirect_port", 9000)
		viper.Set("auth.token_file", "/tmp/autobudget-token.json")

		cfg, err := LoadAuthConfig()
		require.NoError(t, err)
		assert.Empty(t, cfg.StaticToken)
		assert.Equal(t, "cli", cfg.ClientID)
		assert.Equal(t, []string{"openid"}, cfg.Scopes)
		assert.Equal(t, 9000, cfg.RedirectPort)
		assert.Equal(t, "/tmp/autobudget-token.json", cfg.TokenFile)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad redirect port", func(t *testing.T) {
		resetViper(t)
		viper.Set("auth.redirect_port", 70000)

		_, err := LoadAuthConfig()
		assert.True(t, errors.Is(err, common.ErrInvalidConfig))
	})
}

func TestLoadSheetsConfig(t *testing.T) {
	clearSheetsEnv := func(t *testing.T) {
		for _, key := range []string{
			"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
			"GOOGLE_SHEETS_CLIENT_ID",
			"GOOGLE_SHEETS_CLIENT_SECRET",
			"GOOGLE_SHEETS_REFRESH_TOKEN",
			"GOOGLE_SHEETS_SPREADSHEET_ID",
			"GOOGLE_SHEETS_SPREADSHEET_NAME",
		} {
			t.Setenv(key, "")
		}
	}

	t.Run("missing credentials", func(t *testing.T) {
		resetViper(t)
		clearSheetsEnv(t)
		viper.Set("sheets.token_file", filepath.Join(t.TempDir(), "missing.json"))

		_, err := LoadSheetsConfig()
		assert.Error(t, err)
	})

	t.Run("environment credentials", func(t *testing.T) {
		resetViper(t)
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "refresh")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "id", cfg.ClientID)
		assert.Equal(t, "Budget Analytics", cfg.SpreadsheetName)
		assert.Equal(t, "Analytics", cfg.SheetTitle)
	})

	t.Run("saved refresh token", func(t *testing.T) {
		resetViper(t)
		clearSheetsEnv(t)
		tokenFile := filepath.Join(t.TempDir(), "sheets-token.json")
		require.NoError(t, auth.SaveToken(tokenFile, &oauth2.Token{AccessToken: "a", RefreshToken: "saved-refresh"}))
		viper.Set("sheets.token_file", tokenFile)
		viper.Set("sheets.client_id", "id")
		viper.Set("sheets.client_secret", "secret")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "saved-refresh", cfg.RefreshToken)
	})

	t.Run("viper overrides", func(t *testing.T) {
		resetViper(t)
		clearSheetsEnv(t)
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "From Env")
		viper.Set("sheets.service_account_path", "/etc/autobudget/sa.json")
		viper.Set("sheets.spreadsheet_name", "From Config")
		viper.Set("sheets.batch_size", 50)
		viper.Set("sheets.enable_formatting", false)

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "/etc/autobudget/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "From Config", cfg.SpreadsheetName)
		assert.Equal(t, 50, cfg.BatchSize)
		assert.False(t, cfg.EnableFormatting)
	})
}

func TestDatabasePath(t *testing.T) {
	resetViper(t)
	assert.Equal(t, ExpandPath(DefaultDatabasePath), DatabasePath())

	viper.Set("database", "/tmp/sessions.db")
	assert.Equal(t, "/tmp/sessions.db", DatabasePath())
}

func TestConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "autobudget"), dir)
	assert.Equal(t, filepath.Join(dir, "sessions.db"), ExpandPath(DefaultDatabasePath))
}
