// Package googleauth acquires and persists Google OAuth2 tokens for the
// Gmail source and the Sheets exporter.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultRedirectPort is where the local callback server listens.
const DefaultRedirectPort = 8080

// ErrNoToken is returned when no stored token exists and interactive
// authentication is not allowed.
var ErrNoToken = errors.New("no stored OAuth token")

// OAuth2Config holds OAuth2 configuration.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string // Where to save the token
	Scopes       []string
	RedirectPort int
}

func (c OAuth2Config) oauthConfig() *oauth2.Config {
	port := c.RedirectPort
	if port == 0 {
		port = DefaultRedirectPort
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", port),
		Scopes:       c.Scopes,
	}
}

// Validate checks that client credentials and scopes are present.
func (c OAuth2Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("OAuth client ID and secret are required")
	}
	if len(c.Scopes) == 0 {
		return fmt.Errorf("at least one OAuth scope is required")
	}
	return nil
}

// AuthenticateOAuth2Interactive performs the OAuth2 flow interactively.
func AuthenticateOAuth2Interactive(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	oauthConfig := config.oauthConfig()
	state := uuid.NewString()

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			errorChan <- fmt.Errorf("OAuth state mismatch")
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			errorChan <- fmt.Errorf("no authorization code received")
			_, _ = fmt.Fprintf(w, `<html><body>
				<h1>Authentication Failed</h1>
				<p>No authorization code received. Please try again.</p>
			</body></html>`)
			return
		}

		codeChan <- code
		_, _ = fmt.Fprintf(w, `<html><body>
			<h1>Authentication Successful!</h1>
			<p>You can close this window and return to the terminal.</p>
		</body></html>`)
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", redirectPort(config)))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errorChan <- fmt.Errorf("callback server failed: %w", serveErr)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	slog.Info("🔐 Google authentication required", "scopes", config.Scopes)
	slog.Info("Please visit this URL to authenticate", "url", authURL)
	slog.Info("Waiting for authentication...")

	var authCode string
	select {
	case authCode = <-codeChan:
		slog.Info("Received authorization code")
	case err := <-errorChan:
		_ = server.Shutdown(ctx)
		return nil, err
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		_ = server.Shutdown(ctx)
		return nil, fmt.Errorf("authentication timeout - no response received within 5 minutes")
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("Error shutting down callback server", "error", err)
	}

	token, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := SaveToken(config.TokenFile, token); err != nil {
			slog.Warn("Failed to save token to file", "error", err, "file", config.TokenFile)
		} else {
			slog.Info("Token saved successfully", "file", config.TokenFile)
		}
	}

	return token, nil
}

func redirectPort(c OAuth2Config) int {
	if c.RedirectPort == 0 {
		return DefaultRedirectPort
	}
	return c.RedirectPort
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

// SaveToken writes a token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
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

// TokenSource returns a refreshing token source for a stored token. Refreshed
// tokens are written back to the token file.
func TokenSource(ctx context.Context, config OAuth2Config, token *oauth2.Token) oauth2.TokenSource {
	base := config.oauthConfig().TokenSource(ctx, token)
	if config.TokenFile == "" {
		return base
	}
	return &persistingSource{base: base, path: config.TokenFile, last: token.AccessToken}
}

// persistingSource saves the token whenever the access token changes.
type persistingSource struct {
	base oauth2.TokenSource
	path string
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if saveErr := SaveToken(s.path, token); saveErr != nil {
			slog.Warn("Failed to save refreshed token", "error", saveErr)
		}
	}
	return token, nil
}

// GetOrCreateToken gets an existing token or, when interactive is set,
// runs the browser flow to create one.
func GetOrCreateToken(ctx context.Context, config OAuth2Config, interactive bool) (*oauth2.Token, error) {
	if config.TokenFile != "" {
		token, err := LoadToken(config.TokenFile)
		if err == nil {
			slog.Debug("Loaded existing token from file", "file", config.TokenFile)
			return token, nil
		}
		slog.Debug("No usable token found", "file", config.TokenFile, "error", err)
	}

	if !interactive {
		return nil, fmt.Errorf("%w: run `triage auth` first", ErrNoToken)
	}

	return AuthenticateOAuth2Interactive(ctx, config)
}

// NewHTTPClient returns an authorized HTTP client for config, loading (or
// interactively creating) the token as needed.
func NewHTTPClient(ctx context.Context, config OAuth2Config, interactive bool) (*http.Client, error) {
	token, err := GetOrCreateToken(ctx, config, interactive)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, TokenSource(ctx, config, token)), nil
}
