package sheets

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

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// authTimeout bounds how long Authenticate waits for the browser callback.
const authTimeout = 5 * time.Minute

// OAuth2Config holds OAuth2 client credentials and where the token is kept.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	CallbackAddr string
}

func (c OAuth2Config) callbackAddr() string {
	if c.CallbackAddr == "" {
		return "localhost:8080"
	}
	return c.CallbackAddr
}

func (c OAuth2Config) oauth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://" + c.callbackAddr() + "/callback",
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// Authenticate runs the browser OAuth2 flow and saves the token to TokenFile.
func Authenticate(ctx context.Context, config OAuth2Config, logger *slog.Logger) (*oauth2.Token, error) {
	oauthConfig := config.oauth2()

	listener, err := net.Listen("tcp", config.callbackAddr())
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			select {
			case errorChan <- errors.New("no authorization code received"):
			default:
			}
			_, _ = fmt.Fprint(w, "<html><body><h1>Authentication failed</h1></body></html>")
			return
		}
		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprint(w, "<html><body><h1>Authentication complete</h1><p>You can close this window.</p></body></html>")
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errorChan <- fmt.Errorf("callback server failed: %w", serveErr)
		}
	}()
	defer func() {
		if shutdownErr := server.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Warn("error shutting down callback server", "error", shutdownErr)
		}
	}()

	authURL := oauthConfig.AuthCodeURL("docmeta", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	logger.Info("Google Sheets authentication required")
	logger.Info("visit this URL to authenticate", "url", authURL)

	var authCode string
	select {
	case authCode = <-codeChan:
	case err := <-errorChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("authentication timed out after %s", authTimeout)
	}

	token, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := SaveToken(config.TokenFile, token); err != nil {
			return nil, err
		}
		logger.Info("token saved", "file", config.TokenFile)
	}
	return token, nil
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
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// savingTokenSource persists refreshed tokens back to the token file. It is
// wrapped in oauth2.ReuseTokenSource, which serializes calls.
type savingTokenSource struct {
	base   oauth2.TokenSource
	logger *slog.Logger
	last   *oauth2.Token
	path   string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || token.AccessToken != s.last.AccessToken {
		if err := SaveToken(s.path, token); err != nil {
			s.logger.Warn("failed to save refreshed token", "error", err)
		}
		s.last = token
	}
	return token, nil
}

// tokenSource builds the token source for the configured auth method.
func tokenSource(ctx context.Context, config Config, logger *slog.Logger) (oauth2.TokenSource, error) {
	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return jwtConfig.TokenSource(ctx), nil
	}

	oauthConfig := OAuth2Config{ClientID: config.ClientID, ClientSecret: config.ClientSecret}.oauth2()

	if config.RefreshToken != "" {
		return oauthConfig.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}), nil
	}

	token, err := LoadToken(config.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no usable token in %s (run `docmeta sheets auth`): %w", config.TokenFile, err)
	}
	return oauth2.ReuseTokenSource(token, &savingTokenSource{
		base:   oauthConfig.TokenSource(ctx, token),
		path:   config.TokenFile,
		last:   token,
		logger: logger,
	}), nil
}
