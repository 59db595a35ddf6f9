package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/exam-allocator/internal/config"
)

func TestGetOAuthConfig(t *testing.T) {
	oauthCfg := &config.OAuthClientConfig{
		Installed: config.OAuthInstalled{
			ClientID:                "client-id",
			ProjectID:               "project",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}

	cfg, err := GetOAuthConfig(oauthCfg)
	require.NoError(t, err)

	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, []string{ScopeSheets}, cfg.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", cfg.RedirectURL)
}

func TestGrantsSheets(t *testing.T) {
	assert.True(t, grantsSheets("openid "+ScopeSheets))
	assert.False(t, grantsSheets("openid email"))
	assert.False(t, grantsSheets(ScopeSheets+".readonly"))
	assert.False(t, grantsSheets(""))
}

func TestTokenFileRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	missing, err := loadToken("test")
	require.NoError(t, err)
	assert.Nil(t, missing)

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, saveToken("test", token))

	loaded, err := loadToken("test")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)

	path, err := tokenPath("test")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, deleteToken("test"))
	require.NoError(t, deleteToken("test"), "deleting twice is not an error")

	loaded, err = loadToken("test")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
