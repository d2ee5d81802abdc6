package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/Veraticus/autobudget/internal/common"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrStateMismatch is returned when the callback's state does not match the request.
var ErrStateMismatch = errors.New("oauth state mismatch")

// URLOpener presents the authorization URL to the user.
type URLOpener func(url string) error

// Login runs the authorization code flow with PKCE. A local server receives
// the callback; the resulting token is saved to cfg.TokenFile.
func Login(ctx context.Context, cfg Config, open URLOpener) (*oauth2.Token, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.AuthURL == "" {
		return nil, fmt.Errorf("%w: auth auth_url", common.ErrMissingConfig)
	}
	if open == nil {
		open = OpenBrowser
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.RedirectPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}
	redirectURL := fmt.Sprintf("http://%s/callback", listener.Addr().String())
	oauthConfig := cfg.oauth2Config(redirectURL)

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			sendErr(errorChan, ErrStateMismatch)
			http.Error(w, "Authentication failed: state mismatch.", http.StatusBadRequest)
		case q.Get("error") != "":
			sendErr(errorChan, fmt.Errorf("authorization denied: %s", q.Get("error")))
			http.Error(w, "Authentication failed. You can close this window.", http.StatusBadRequest)
		case q.Get("code") == "":
			sendErr(errorChan, fmt.Errorf("no authorization code received"))
			http.Error(w, "No authorization code received. Please try again.", http.StatusBadRequest)
		default:
			select {
			case codeChan <- q.Get("code"):
			default:
			}
			_, _ = fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You can close this window and return to the terminal.</p></body></html>")
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errorChan, fmt.Errorf("callback server failed: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	slog.Info("Please visit this URL to authenticate", "url", authURL)
	if err := open(authURL); err != nil {
		slog.Debug("failed to open browser", "error", err)
	}

	timeout := cfg.LoginTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().LoginTimeout
	}

	var code string
	select {
	case code = <-codeChan:
		slog.Debug("received authorization code")
	case err := <-errorChan:
		return nil, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("authentication timeout: no response within %s", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := persist(cfg, token); err != nil {
		return nil, err
	}
	return token, nil
}

// LoginPassword exchanges a username and password for a token using the
// resource owner password grant.
func LoginPassword(ctx context.Context, cfg Config, username, password string) (*oauth2.Token, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	token, err := cfg.oauth2Config("").PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	if err := persist(cfg, token); err != nil {
		return nil, err
	}
	return token, nil
}

func persist(cfg Config, token *oauth2.Token) error {
	if cfg.TokenFile == "" {
		return nil
	}
	if err := SaveToken(cfg.TokenFile, token); err != nil {
		return err
	}
	slog.Info("token saved", "file", cfg.TokenFile)
	return nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// OpenBrowser tries to open url in the default browser.
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url).Start() //nolint:gosec
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec
	case "darwin":
		return exec.Command("open", url).Start() //nolint:gosec
	}
	return fmt.Errorf("unsupported platform %s", runtime.GOOS)
}
