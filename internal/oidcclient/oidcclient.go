// Package oidcclient fetches and memoizes OIDC discovery documents per
// issuer URL, grounded on the toolhive teacher's auth/oauth discovery
// logic (buildWellKnownURLs/validateOIDCDocument) and backed by
// github.com/coreos/go-oidc/v3 for parsing and JWKS handling.
package oidcclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/oidcd/oidcd/internal/ierrors"
)

// UserAgent identifies the agent to OIDC providers.
const UserAgent = "oidcd/1.0"

// IssuerConfig is the immutable result of discovery for one issuer.
type IssuerConfig struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	DeviceAuthorizationEndpoint   string   `json:"device_authorization_endpoint"`
	RegistrationEndpoint          string   `json:"registration_endpoint"`
	RevocationEndpoint            string   `json:"revocation_endpoint"`
	JWKSURI                       string   `json:"jwks_uri"`
	ScopesSupported               []string `json:"scopes_supported"`
	GrantTypesSupported           []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
}

// SupportsFlow reports whether the issuer advertises support for a given
// OAuth grant type. Providers that omit grant_types_supported are treated
// as supporting every grant type.
func (c *IssuerConfig) SupportsFlow(grantType string) bool {
	if len(c.GrantTypesSupported) == 0 {
		return true
	}
	for _, g := range c.GrantTypesSupported {
		if g == grantType {
			return true
		}
	}
	return false
}

// Cache memoizes IssuerConfig by issuer URL.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*IssuerConfig
}

// NewCache returns an empty issuer config cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*IssuerConfig)}
}

// Get returns the cached IssuerConfig for issuer, fetching it on first use.
func (c *Cache) Get(ctx context.Context, issuer string) (*IssuerConfig, error) {
	c.mu.Lock()
	if cfg, ok := c.entries[issuer]; ok {
		c.mu.Unlock()
		return cfg, nil
	}
	c.mu.Unlock()

	cfg, err := discover(ctx, issuer)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[issuer] = cfg
	c.mu.Unlock()
	return cfg, nil
}

// Invalidate drops a cached entry so the next Get re-fetches it. Entries
// are never partially mutated; invalidation always discards the whole
// entry.
func (c *Cache) Invalidate(issuer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, issuer)
}

func discover(ctx context.Context, issuer string) (*IssuerConfig, error) {
	if err := validateIssuerURL(issuer); err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "invalid issuer URL", err)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "OIDC discovery failed", err)
	}

	cfg := &IssuerConfig{
		Issuer:                issuer,
		AuthorizationEndpoint: provider.Endpoint().AuthURL,
		TokenEndpoint:         provider.Endpoint().TokenURL,
	}
	if err := provider.Claims(cfg); err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "failed to parse discovery document", err)
	}
	// provider.Claims overwrites fields we've already set from the typed
	// accessors above with the same values; authorization_endpoint and
	// token_endpoint are present in the raw document too, so no data is
	// lost either way.
	if cfg.TokenEndpoint == "" {
		return nil, ierrors.New(ierrors.KindNetworkError, "discovery document missing token_endpoint")
	}
	return cfg, nil
}

func validateIssuerURL(issuer string) error {
	u, err := url.Parse(issuer)
	if err != nil {
		return fmt.Errorf("parse issuer: %w", err)
	}
	if u.Scheme != "https" && !isLocalhost(u.Host) {
		return fmt.Errorf("issuer must use HTTPS: %s", issuer)
	}
	return nil
}

func isLocalhost(host string) bool {
	h := host
	if i := strings.LastIndex(h, ":"); i != -1 {
		h = h[:i]
	}
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}
