// Package flow implements the OIDC Flow Engine: refresh, password,
// authorization-code with PKCE, device, dynamic client registration, and
// revocation. Each entry point takes an Account Record and, on success,
// populates its tokens and expiry in place.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/oidcclient"
	"github.com/oidcd/oidcd/internal/registry"
)

// UserAgent identifies the agent to the OIDC provider.
const UserAgent = oidcclient.UserAgent

// maxResponseSize bounds provider response bodies at 1 MiB; this is
// separate from, and larger than, the 256 KiB IPC framing cap.
const maxResponseSize = 1024 * 1024

// CredentialPrompter is the Frontend Channel capability the password flow
// needs: ask the user for a username/password when the account doesn't
// already carry one.
type CredentialPrompter interface {
	RequestCredentials(ctx context.Context, account *registry.Account) (username, password string, err error)
}

// Engine drives the OIDC flows against a discovery cache and an HTTP
// transport sized the way a background agent should: short timeouts so a
// wedged provider can't stall the dispatch loop.
type Engine struct {
	Cache      *oidcclient.Cache
	HTTPClient *http.Client
	Prompter   CredentialPrompter
}

// NewEngine returns an Engine with a cache and HTTP client suitable for
// production use.
func NewEngine(cache *oidcclient.Cache, prompter CredentialPrompter) *Engine {
	return &Engine{
		Cache:    cache,
		Prompter: prompter,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
			},
		},
	}
}

// tokenResponse is the standard OAuth 2.0 token endpoint response body
// (RFC 6749 §5.1), shared by the refresh, password, code-exchange, and
// device-poll flows.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token"`
}

// oauthError is the standard OAuth 2.0 error response body (RFC 6749 §5.2).
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// doPostForm POSTs application/x-www-form-urlencoded values to endpoint and
// returns the raw response body for a 200 or 201, or an OIDC error derived from the
// provider's RFC 6749 §5.2 error body (or the raw status/body if it isn't
// one) for anything else.
func (e *Engine) doPostForm(ctx context.Context, endpoint string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var oe oauthError
		if jsonErr := json.Unmarshal(body, &oe); jsonErr == nil && oe.Error != "" {
			return nil, ierrors.OIDC(oe.Error, oe.ErrorDescription)
		}
		return nil, ierrors.OIDC("invalid_response", fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)))
	}
	return body, nil
}

// postForm is doPostForm specialized to the token endpoint's response
// shape, used by the refresh, password, code-exchange, and device-poll
// flows.
func (e *Engine) postForm(ctx context.Context, endpoint string, values url.Values) (*tokenResponse, error) {
	body, err := e.doPostForm(ctx, endpoint, values)
	if err != nil {
		return nil, err
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, ierrors.Wrap(ierrors.KindOidcError, "failed to decode token response", err)
	}
	return &tr, nil
}

// applyToken writes a successful token response onto account, rotating the
// refresh token only when the provider actually issued a new one.
func applyToken(account *registry.Account, tr *tokenResponse, now int64) {
	account.AccessToken.Set([]byte(tr.AccessToken))
	account.AccessTokenExpiresAt = now + tr.ExpiresIn
	if tr.Scope != "" {
		account.AccessTokenScopes = strings.Fields(tr.Scope)
	} else {
		account.AccessTokenScopes = append([]string(nil), account.Scopes...)
	}
	if tr.RefreshToken != "" {
		account.RefreshToken.Set([]byte(tr.RefreshToken))
	}
}

func clientCredentials(values url.Values, clientID, clientSecret string) {
	values.Set("client_id", clientID)
	if clientSecret != "" {
		values.Set("client_secret", clientSecret)
	}
}

// newJSONRequest builds a POST request carrying a JSON body, used by
// dynamic registration. bearerToken is attached as an Authorization header
// when non-empty (the provider may require a prior access token to permit
// registration).
func newJSONRequest(ctx context.Context, endpoint string, body []byte, bearerToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	return req, nil
}

func readLimited(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "failed to read response", err)
	}
	return body, nil
}
