package oidcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                          srv.URL,
			"authorization_endpoint":          srv.URL + "/authorize",
			"token_endpoint":                  srv.URL + "/token",
			"device_authorization_endpoint":   srv.URL + "/device/code",
			"registration_endpoint":           srv.URL + "/register",
			"revocation_endpoint":             srv.URL + "/revoke",
			"jwks_uri":                        srv.URL + "/jwks",
			"scopes_supported":                []string{"openid", "offline_access", "profile"},
			"grant_types_supported":           []string{"authorization_code", "refresh_token", "password"},
			"code_challenge_methods_supported": []string{"S256"},
		})
	})
	return srv
}

func TestCache_Get(t *testing.T) {
	t.Parallel()
	srv := newTestIssuer(t)

	c := NewCache()
	cfg, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/token", cfg.TokenEndpoint)
	assert.Equal(t, srv.URL+"/device/code", cfg.DeviceAuthorizationEndpoint)
	assert.Equal(t, srv.URL+"/register", cfg.RegistrationEndpoint)
	assert.Equal(t, srv.URL+"/revoke", cfg.RevocationEndpoint)
	assert.Contains(t, cfg.ScopesSupported, "offline_access")
}

func TestCache_Memoizes(t *testing.T) {
	t.Parallel()
	var hits int
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":         srv.URL,
			"token_endpoint": srv.URL + "/token",
		})
	})

	c := NewCache()
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, hits, "second Get must be served from cache")
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()
	srv := newTestIssuer(t)
	c := NewCache()
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	c.Invalidate(srv.URL)
	c.mu.Lock()
	_, cached := c.entries[srv.URL]
	c.mu.Unlock()
	assert.False(t, cached)
}

func TestIssuerConfig_SupportsFlow(t *testing.T) {
	t.Parallel()
	cfg := &IssuerConfig{GrantTypesSupported: []string{"authorization_code", "refresh_token"}}
	assert.True(t, cfg.SupportsFlow("authorization_code"))
	assert.False(t, cfg.SupportsFlow("password"))

	unset := &IssuerConfig{}
	assert.True(t, unset.SupportsFlow("anything"))
}

func TestValidateIssuerURL(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateIssuerURL("http://localhost:8080"))
	assert.NoError(t, validateIssuerURL("https://accounts.example.com"))
	assert.Error(t, validateIssuerURL("http://evil.example.com"))
}
