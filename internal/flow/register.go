package flow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// ClientName identifies this agent to a provider's registration endpoint.
const ClientName = "oidcd"

const grantPassword = "password"

// RegistrationRequest is a dynamic client registration request (RFC 7591
// §3.1), trimmed to the fields the agent needs to populate.
type RegistrationRequest struct {
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
}

// RegistrationResponse is a dynamic client registration response
// (RFC 7591 §3.2.1).
type RegistrationResponse struct {
	ClientID                string `json:"client_id"`
	ClientSecret            string `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64  `json:"client_id_issued_at,omitempty"`
	ClientSecretExpiresAt   int64  `json:"client_secret_expires_at,omitempty"`
	RegistrationAccessToken string `json:"registration_access_token,omitempty"`
	RegistrationClientURI   string `json:"registration_client_uri,omitempty"`
	Scope                   string `json:"scope,omitempty"`

	// Note is set locally when the engine downgrades the request on a
	// password-grant retry; never sent by the provider.
	Note string `json:"-"`
}

// RegisterResult bundles the registration response with whatever caution
// the caller should surface alongside it.
type RegisterResult struct {
	Response *RegistrationResponse
	Warning  error // non-nil for InsufficientScope, still a successful registration
}

// Register implements dynamic client registration: POST account
// metadata including the requested flows to registration_endpoint. If the
// provider rejects a request that includes the password grant, retry once
// without it. If the granted scope lacks openid or offline_access, the
// result still succeeds but carries an InsufficientScope warning.
func (e *Engine) Register(ctx context.Context, account *registry.Account, flows []string, accessToken string) (*RegisterResult, error) {
	cfg, err := e.Cache.Get(ctx, account.IssuerURL)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "failed to discover issuer config", err)
	}
	if cfg.RegistrationEndpoint == "" {
		return nil, ierrors.New(ierrors.KindOidcError, "issuer has no registration_endpoint")
	}

	req := buildRegistrationRequest(account, flows)
	resp, err := e.doRegister(ctx, cfg.RegistrationEndpoint, req, accessToken)
	if err != nil {
		if hasGrant(flows, grantPassword) {
			retryFlows := withoutGrant(flows, grantPassword)
			retryReq := buildRegistrationRequest(account, retryFlows)
			resp, retryErr := e.doRegister(ctx, cfg.RegistrationEndpoint, retryReq, accessToken)
			if retryErr == nil {
				resp.Note = "provider does not support the password grant for this client"
				return finishRegister(resp), nil
			}
		}
		return nil, err
	}
	return finishRegister(resp), nil
}

func finishRegister(resp *RegistrationResponse) *RegisterResult {
	result := &RegisterResult{Response: resp}
	granted := strings.Fields(resp.Scope)
	if !containsAll(granted, "openid", "offline_access") {
		result.Warning = ierrors.New(ierrors.KindInsufficientScope,
			"granted scope does not contain both openid and offline_access")
	}
	return result
}

func buildRegistrationRequest(account *registry.Account, flows []string) *RegistrationRequest {
	req := &RegistrationRequest{
		ClientName:    ClientName,
		RedirectURIs:  account.RedirectURIs,
		GrantTypes:    flows,
		ResponseTypes: []string{"code"},
	}
	if len(account.Scopes) > 0 {
		req.Scope = strings.Join(account.Scopes, " ")
	}
	if hasGrant(flows, "authorization_code") {
		req.TokenEndpointAuthMethod = "none"
	}
	return req
}

func (e *Engine) doRegister(ctx context.Context, endpoint string, req *RegistrationRequest, accessToken string) (*RegistrationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindInternal, "failed to marshal registration request", err)
	}

	httpReq, err := newJSONRequest(ctx, endpoint, body, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := e.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "registration request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := readLimited(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		var oe oauthError
		if jsonErr := json.Unmarshal(respBody, &oe); jsonErr == nil && oe.Error != "" {
			return nil, ierrors.OIDC(oe.Error, oe.ErrorDescription)
		}
		return nil, ierrors.New(ierrors.KindOidcError, "dynamic registration failed")
	}

	var out RegistrationResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, ierrors.Wrap(ierrors.KindOidcError, "failed to decode registration response", err)
	}
	if out.ClientID == "" {
		return nil, ierrors.New(ierrors.KindOidcError, "registration response missing client_id")
	}
	return &out, nil
}

func hasGrant(flows []string, grant string) bool {
	for _, f := range flows {
		if f == grant {
			return true
		}
	}
	return false
}

func withoutGrant(flows []string, grant string) []string {
	out := make([]string, 0, len(flows))
	for _, f := range flows {
		if f != grant {
			out = append(out, f)
		}
	}
	return out
}

func containsAll(haystack []string, needles ...string) bool {
	set := make(map[string]struct{}, len(haystack))
	for _, h := range haystack {
		set[h] = struct{}{}
	}
	for _, n := range needles {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}
