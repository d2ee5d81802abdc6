// Package auth obtains, stores and refreshes the identity provider tokens
// used as bearer credentials against the backend.
package auth

import (
	"fmt"
	"time"

	"github.com/Veraticus/autobudget/internal/common"
	"golang.org/x/oauth2"
)

// Config holds the OAuth2 settings of the identity provider.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	TokenFile    string
	// StaticToken bypasses the OAuth2 flow entirely when set.
	StaticToken  string
	Scopes       []string
	RedirectPort int
	LoginTimeout time.Duration
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		RedirectPort: 8085,
		LoginTimeout: 5 * time.Minute,
		Scopes:       []string{"openid", "email", "offline_access"},
	}
}

// Validate checks that an OAuth2 flow can be run.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: auth client_id", common.ErrMissingConfig)
	}
	if c.TokenURL == "" {
		return fmt.Errorf("%w: auth token_url", common.ErrMissingConfig)
	}
	if c.RedirectPort < 0 || c.RedirectPort > 65535 {
		return fmt.Errorf("%w: redirect port %d", common.ErrInvalidConfig, c.RedirectPort)
	}
	return nil
}

func (c Config) oauth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURL,
			TokenURL: c.TokenURL,
		},
		RedirectURL: redirectURL,
		Scopes:      c.Scopes,
	}
}
