package config

import (
	"fmt"
	"os"

	"github.com/Veraticus/autobudget/internal/api"
	"github.com/Veraticus/autobudget/internal/auth"
	"github.com/Veraticus/autobudget/internal/common"
	"github.com/spf13/viper"
)

// Defaults for the local files autobudget owns.
const (
	DefaultTokenFile    = Dir + "/token.json"
	DefaultDatabasePath = Dir + "/sessions.db"
)

// LoadAPIConfig reads the backend base URL and request timeout.
func LoadAPIConfig() (api.Config, error) {
	cfg := api.DefaultConfig()

	cfg.BaseURL = firstNonEmpty(viper.GetString("api.base_url"), os.Getenv("AUTOBUDGET_API_URL"), cfg.BaseURL)

	if viper.IsSet("api.timeout") {
		timeout := viper.GetDuration("api.timeout")
		if timeout <= 0 {
			return api.Config{}, fmt.Errorf("%w: api.timeout must be positive, got %q",
				common.ErrInvalidConfig, viper.GetString("api.timeout"))
		}
		cfg.Timeout = timeout
	}

	return cfg, nil
}

// LoadAuthConfig reads the identity provider settings. A static token from
// auth.token or AUTOBUDGET_TOKEN short-circuits the OAuth2 flow.
func LoadAuthConfig() (auth.Config, error) {
	cfg := auth.DefaultConfig()

	cfg.StaticToken = firstNonEmpty(viper.GetString("auth.token"), os.Getenv("AUTOBUDGET_TOKEN"))
	cfg.ClientID = viper.GetString("auth.client_id")
	cfg.ClientSecret = viper.GetString("auth.client_secret")
	cfg.AuthURL = viper.GetString("auth.auth_url")
	cfg.TokenURL = viper.GetString("auth.token_url")
	cfg.TokenFile = ExpandPath(firstNonEmpty(viper.GetString("auth.token_file"), DefaultTokenFile))

	if scopes := viper.GetStringSlice("auth.scopes"); len(scopes) > 0 {
		cfg.Scopes = scopes
	}
	if viper.IsSet("auth.redirect_port") {
		cfg.RedirectPort = viper.GetInt("auth.redirect_port")
	}
	if viper.IsSet("auth.login_timeout") {
		cfg.LoginTimeout = viper.GetDuration("auth.login_timeout")
	}

	if cfg.RedirectPort < 0 || cfg.RedirectPort > 65535 {
		return auth.Config{}, fmt.Errorf("%w: auth.redirect_port %d", common.ErrInvalidConfig, cfg.RedirectPort)
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = auth.DefaultConfig().LoginTimeout
	}

	return cfg, nil
}

// DatabasePath returns the location of the import session database.
func DatabasePath() string {
	return ExpandPath(firstNonEmpty(viper.GetString("database"), DefaultDatabasePath))
}

