// Package sheets exports analytics series to Google Sheets.
package sheets

import (
	"fmt"
	"time"

	"github.com/Veraticus/autobudget/internal/auth"
	"github.com/Veraticus/autobudget/internal/common"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// AuthMethod names how the writer authenticates against Google.
type AuthMethod string

// Supported authentication methods.
const (
	AuthNone           AuthMethod = ""
	AuthOAuth          AuthMethod = "oauth"
	AuthServiceAccount AuthMethod = "service-account"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	SheetTitle         string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns the export defaults: one analytics tab in a
// spreadsheet named "Budget Analytics".
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		SpreadsheetName:  "Budget Analytics",
		SheetTitle:       "Analytics",
		TimeZone:         "Europe/Berlin",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// Method reports which credentials are configured. A service account wins
// when both are present; Validate rejects that combination.
func (c *Config) Method() AuthMethod {
	switch {
	case c.ServiceAccountPath != "":
		return AuthServiceAccount
	case c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != "":
		return AuthOAuth
	default:
		return AuthNone
	}
}

// Validate checks that exactly one way to authenticate is configured and
// that the batching settings make sense.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""

	switch {
	case c.Method() == AuthNone:
		return fmt.Errorf("%w: no authentication method configured for Google Sheets; "+
			"set sheets.service_account_path or run 'autobudget auth sheets'", common.ErrMissingConfig)
	case hasOAuth && c.ServiceAccountPath != "":
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account",
			common.ErrInvalidConfig)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", common.ErrInvalidConfig)
	case c.RetryAttempts < 0:
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	case c.RetryDelay < 0:
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}

// AuthConfig returns the settings for obtaining a Sheets refresh token
// through the interactive browser flow.
func (c *Config) AuthConfig(tokenFile string, redirectPort int) auth.Config {
	cfg := auth.DefaultConfig()
	cfg.ClientID = c.ClientID
	cfg.ClientSecret = c.ClientSecret
	cfg.AuthURL = google.Endpoint.AuthURL
	cfg.TokenURL = google.Endpoint.TokenURL
	cfg.Scopes = []string{sheets.SpreadsheetsScope}
	cfg.TokenFile = tokenFile
	if redirectPort > 0 {
		cfg.RedirectPort = redirectPort
	}
	return cfg
}
