package flow

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// stateLen is the raw byte length of used_state before base64 encoding:
// a 24-byte URL-safe base64 random value.
const stateLen = 24

// verifierLen is the raw byte length of the PKCE code verifier. 32 bytes
// base64url-encodes to 43 characters, within RFC 7636's 43-128 range.
const verifierLen = 32

// AuthorizationStart is the information the caller needs to send the user
// to the provider and later resume the flow.
type AuthorizationStart struct {
	AuthorizationURL string
	State            string
}

func randomURLSafe(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// generatePKCE returns a code_verifier and its S256 code_challenge per
// RFC 7636.
func generatePKCE() (verifier, challenge string, err error) {
	verifier, err = randomURLSafe(verifierLen)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

// StartAuthorizationCode implements the authorization-code + PKCE flow's
// non-blocking half: generate state and a PKCE pair, stash them on the
// account, and hand back the URL to redirect the user to. The
// caller is responsible for notifying the Callback Receiver to start
// listening for state before handing the URL to the user.
func (e *Engine) StartAuthorizationCode(ctx context.Context, account *registry.Account) (*AuthorizationStart, error) {
	if len(account.RedirectURIs) == 0 {
		return nil, ierrors.New(ierrors.KindNoRedirectUris, "account has no redirect_uris")
	}

	cfg, err := e.Cache.Get(ctx, account.IssuerURL)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindNetworkError, "failed to discover issuer config", err)
	}
	if cfg.AuthorizationEndpoint == "" {
		return nil, ierrors.New(ierrors.KindOidcError, "issuer has no authorization endpoint")
	}

	state, err := randomURLSafe(stateLen)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindInternal, "failed to generate state", err)
	}
	verifier, challenge, err := generatePKCE()
	if err != nil {
		return nil, ierrors.Wrap(ierrors.KindInternal, "failed to generate PKCE parameters", err)
	}

	account.UsedState = state
	account.PKCECodeVerifier.Set([]byte(verifier))

	q := url.Values{
		"response_type":         {"code"},
		"client_id":             {account.ClientID},
		"redirect_uri":          {account.RedirectURIs[0]},
		"state":                 {state},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
	}
	if len(account.Scopes) > 0 {
		q.Set("scope", strings.Join(account.Scopes, " "))
	}

	return &AuthorizationStart{
		AuthorizationURL: cfg.AuthorizationEndpoint + "?" + q.Encode(),
		State:            state,
	}, nil
}

// ExchangeCode implements codeExchange: finalize a pending code flow.
// The caller looks the account up by shortname; this checks that state
// matches the account's UsedState and that a code verifier is recorded,
// exchanges the code, and clears the PKCE/state scratch regardless of
// outcome. redirectURI is sent to the token endpoint as given; it is not
// compared against the account's RedirectURIs.
func (e *Engine) ExchangeCode(ctx context.Context, account *registry.Account, clientSecret, code, redirectURI, state string) error {
	defer account.ClearCodeFlowScratch()

	if account.UsedState == "" || account.UsedState != state {
		return ierrors.New(ierrors.KindBadRequest, "state does not match a pending code flow")
	}
	if account.PKCECodeVerifier.Empty() {
		return ierrors.New(ierrors.KindBadRequest, "no pkce_code_verifier recorded for this flow")
	}

	cfg, err := e.Cache.Get(ctx, account.IssuerURL)
	if err != nil {
		return ierrors.Wrap(ierrors.KindNetworkError, "failed to discover issuer config", err)
	}
	if cfg.TokenEndpoint == "" {
		return ierrors.New(ierrors.KindOidcError, "issuer has no token endpoint")
	}

	values := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"code_verifier": {account.PKCECodeVerifier.String()},
	}
	clientCredentials(values, account.ClientID, clientSecret)

	tr, err := e.postForm(ctx, cfg.TokenEndpoint, values)
	if err != nil {
		return err
	}
	applyToken(account, tr, time.Now().Unix())
	return nil
}
