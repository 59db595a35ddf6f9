package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/exam-allocator/internal/config"
)

const (
	// AuthPort is where the local callback server listens during the browser flow
	AuthPort     = 3000
	authTimeout  = 5 * time.Minute
	callbackPath = "/oauth/callback"
	tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	tokenDirName = ".exam-allocator/tokens"
)

// ScopeSheets covers reading the question bank and appending to the paper sheet
const ScopeSheets = "https://www.googleapis.com/auth/spreadsheets"

// GetOAuthConfig builds the Sheets OAuth config from the client file, redirecting to
// the local callback server
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	clientJSON, err := oauthCfg.JSON()
	if err != nil {
		return nil, err
	}

	googleConfig, err := google.ConfigFromJSON(clientJSON, ScopeSheets)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}
	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)

	return googleConfig, nil
}

// GetTokenWithFlow returns a Sheets token for env. A stored token is reused (and
// refreshed when expired) as long as it still carries the Sheets scope; otherwise
// the browser flow runs and the new token is stored.
func GetTokenWithFlow(ctx context.Context, oauthConfig *oauth2.Config, env string, logger *zap.Logger) (*oauth2.Token, error) {
	stored, err := loadToken(env)
	if err != nil {
		logger.Warn("Failed to load stored token", zap.Error(err))
	}
	if stored != nil {
		if token := reuseToken(ctx, oauthConfig, env, stored, logger); token != nil {
			return token, nil
		}
	}

	logger.Info("No usable Sheets token, starting browser authorization")
	fmt.Fprintf(os.Stderr, "\nOpen this URL to let the exam allocator use your spreadsheets:\n%s\n\n",
		oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline))

	code, err := awaitAuthCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := checkSheetsScope(ctx, token); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if err := saveToken(env, token); err != nil {
		logger.Warn("Failed to store token, it will only last for this run", zap.Error(err))
	}

	return token, nil
}

// reuseToken returns the stored token, refreshed if expired, or nil when it cannot be used
func reuseToken(ctx context.Context, oauthConfig *oauth2.Config, env string, stored *oauth2.Token, logger *zap.Logger) *oauth2.Token {
	token := stored
	if !token.Valid() {
		if token.RefreshToken == "" {
			return nil
		}
		refreshed, err := oauthConfig.TokenSource(ctx, token).Token()
		if err != nil {
			logger.Debug("Stored token could not be refreshed", zap.Error(err))
			return nil
		}
		token = refreshed
	}

	if err := checkSheetsScope(ctx, token); err != nil {
		logger.Warn("Stored token cannot access spreadsheets, discarding it", zap.Error(err))
		if err := deleteToken(env); err != nil {
			logger.Warn("Failed to delete stored token", zap.Error(err))
		}
		return nil
	}

	if token != stored {
		if err := saveToken(env, token); err != nil {
			logger.Warn("Failed to store refreshed token", zap.Error(err))
		}
	}

	return token
}

// grantsSheets reports whether a space separated scope list includes the Sheets scope
func grantsSheets(scopes string) bool {
	return slices.Contains(strings.Fields(scopes), ScopeSheets)
}

func checkSheetsScope(ctx context.Context, token *oauth2.Token) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL+"?access_token="+token.AccessToken, nil)
	if err != nil {
		return fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tokeninfo request failed with status %d", resp.StatusCode)
	}

	var info struct {
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if !grantsSheets(info.Scope) {
		return fmt.Errorf("token is missing scope %s", ScopeSheets)
	}
	return nil
}

// awaitAuthCode serves the OAuth redirect on localhost until a code arrives, the
// context ends or the flow times out
func awaitAuthCode(ctx context.Context) (string, error) {
	codes := make(chan string, 1)
	errs := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			errs <- errors.New("no authorization code received")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Exam allocator authorized</h1><p>You can close this window.</p></body></html>`)
		codes <- code
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", AuthPort), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("callback server error: %w", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	select {
	case code := <-codes:
		return code, nil
	case err := <-errs:
		return "", err
	case <-waitCtx.Done():
		return "", fmt.Errorf("authorization timeout after %v", authTimeout)
	}
}

// tokenPath is ~/.exam-allocator/tokens/token-<env>.json
func tokenPath(env string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, tokenDirName, fmt.Sprintf("token-%s.json", env)), nil
}

// loadToken returns the stored token for env, or nil when none has been stored
func loadToken(env string) (*oauth2.Token, error) {
	path, err := tokenPath(env)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

func saveToken(env string, token *oauth2.Token) error {
	path, err := tokenPath(env)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func deleteToken(env string) error {
	path, err := tokenPath(env)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
