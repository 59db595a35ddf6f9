package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOAuthClient() *OAuthClientConfig {
	return &OAuthClientConfig{
		Installed: OAuthInstalled{
			ClientID:                "test-client-id.apps.googleusercontent.com",
			ProjectID:               "test-project",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "test-secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}
}

func TestValidateOAuthClient_ValidConfig(t *testing.T) {
	assert.NoError(t, ValidateOAuthClient(validOAuthClient()))
}

func TestValidateOAuthClient_MissingClientID(t *testing.T) {
	cfg := validOAuthClient()
	cfg.Installed.ClientID = ""

	err := ValidateOAuthClient(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateOAuthClient_InvalidURL(t *testing.T) {
	cfg := validOAuthClient()
	cfg.Installed.AuthURI = "not-a-valid-url"

	err := ValidateOAuthClient(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateOAuthClient_EmptyRedirectURIs(t *testing.T) {
	cfg := validOAuthClient()
	cfg.Installed.RedirectURIs = []string{}

	err := ValidateOAuthClient(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestOAuthClientConfig_JSON(t *testing.T) {
	data, err := validOAuthClient().JSON()
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "test-client-id.apps.googleusercontent.com", raw["installed"]["client_id"])
}

func TestLoadOAuthClientFromPath_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	oauthPath := filepath.Join(tmpDir, "oauthClient.json")

	validOAuth := `{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "project_id": "test-project",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "test-secret",
    "redirect_uris": ["http://localhost"]
  }
}`

	err := os.WriteFile(oauthPath, []byte(validOAuth), 0644)
	require.NoError(t, err)

	cfg, err := LoadOAuthClientFromPath(oauthPath)
	require.NoError(t, err)

	assert.Equal(t, "test-client-id.apps.googleusercontent.com", cfg.Installed.ClientID)
	assert.Equal(t, "test-secret", cfg.Installed.ClientSecret)
	require.Len(t, cfg.Installed.RedirectURIs, 1)
}

func TestLoadOAuthClientFromPath_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	oauthPath := filepath.Join(tmpDir, "invalid_oauth.json")

	err := os.WriteFile(oauthPath, []byte(`{"installed": {"client_id": "test" "project_id": "x"}}`), 0644)
	require.NoError(t, err)

	_, err = LoadOAuthClientFromPath(oauthPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse oauth client file")
}

func TestLoadOAuthClientFromPath_FileNotFound(t *testing.T) {
	_, err := LoadOAuthClientFromPath("/nonexistent/path/oauthClient.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read oauth client file")
}

func TestValidateOAuthClient_OptionalFields(t *testing.T) {
	cfg := validOAuthClient()
	cfg.Installed.ProjectID = ""
	cfg.Installed.AuthProviderX509CertURL = ""

	assert.NoError(t, ValidateOAuthClient(cfg))

	cfg.Installed.AuthProviderX509CertURL = "not-a-url"
	assert.ErrorContains(t, ValidateOAuthClient(cfg), "validation failed")
}

func TestLoadOAuthClientWithEnv_FindsEnvFileInHome(t *testing.T) {
	home := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", home)

	data, err := validOAuthClient().JSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(home, "oauthClient.test.json"), data, 0600))

	cfg, err := LoadOAuthClientWithEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "test-secret", cfg.Installed.ClientSecret)

	_, err = LoadOAuthClientWithEnv("prod")
	assert.ErrorContains(t, err, "oauthClient.prod.json not found")
}
