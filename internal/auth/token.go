package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/autobudget/internal/common"
	"golang.org/x/oauth2"
)

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return token, nil
}

// SaveToken writes token to path, readable only by the current user.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// Source hands out access tokens, refreshing and re-saving them as needed.
// It satisfies api.TokenSource.
type Source struct {
	base oauth2.TokenSource
	last *oauth2.Token
	cfg  Config
	mu   sync.Mutex
}

// NewSource creates a token source for cfg. Nothing is read until the first
// call to Token.
func NewSource(cfg Config) *Source {
	return &Source{cfg: cfg}
}

// Token returns a valid access token or an error wrapping common.ErrNoToken.
func (s *Source) Token(ctx context.Context) (string, error) {
	if s.cfg.StaticToken != "" {
		return s.cfg.StaticToken, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base == nil {
		if s.cfg.TokenFile == "" {
			return "", common.ErrNoToken
		}
		saved, err := LoadToken(s.cfg.TokenFile)
		if err != nil {
			slog.Debug("no usable saved token", "file", s.cfg.TokenFile, "error", err)
			return "", common.ErrNoToken
		}
		// the refresh client outlives the first caller's context
		refresher := s.cfg.oauth2Config("").TokenSource(context.WithoutCancel(ctx), saved)
		s.base = oauth2.ReuseTokenSource(saved, refresher)
		s.last = saved
	}

	token, err := s.base.Token()
	if err != nil {
		return "", fmt.Errorf("%w: token refresh failed: %v", common.ErrNoToken, err)
	}
	if token.AccessToken == "" {
		return "", common.ErrNoToken
	}

	if s.last == nil || token.AccessToken != s.last.AccessToken {
		slog.Debug("access token refreshed", "expiry", token.Expiry)
		if err := SaveToken(s.cfg.TokenFile, token); err != nil {
			slog.Warn("failed to save refreshed token", "error", err)
		}
		s.last = token
	}
	return token.AccessToken, nil
}

// Logout removes the saved token. A missing token is not an error.
func Logout(cfg Config) error {
	if cfg.TokenFile == "" {
		return nil
	}
	if err := os.Remove(cfg.TokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	slog.Info("removed saved token", "file", cfg.TokenFile)
	return nil
}

// Status describes where credentials come from and how fresh they are.
type Status struct {
	Expiry     time.Time
	Origin     string
	TokenFile  string
	Refresh    bool
	Expired    bool
	Authorized bool
}

// Credential origins reported by GetStatus.
const (
	OriginStatic = "static"
	OriginFile   = "file"
	OriginNone   = "none"
)

// GetStatus inspects the configured credentials without contacting the provider.
func GetStatus(cfg Config, now time.Time) Status {
	if cfg.StaticToken != "" {
		return Status{Origin: OriginStatic, Authorized: true}
	}

	st := Status{Origin: OriginNone, TokenFile: cfg.TokenFile}
	if cfg.TokenFile == "" {
		return st
	}
	token, err := LoadToken(cfg.TokenFile)
	if err != nil {
		return st
	}

	st.Origin = OriginFile
	st.Expiry = token.Expiry
	st.Refresh = token.RefreshToken != ""
	st.Expired = !token.Expiry.IsZero() && !token.Expiry.After(now)
	st.Authorized = token.AccessToken != "" && (!st.Expired || st.Refresh)
	return st
}
