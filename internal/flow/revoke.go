package flow

import (
	"context"
	"net/url"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// Revoke implements revocation: POST refresh_token (falling
// back to access_token) to revocation_endpoint. Best-effort per RFC 7009,
// but the caller (delete) MUST surface any error.
func (e *Engine) Revoke(ctx context.Context, account *registry.Account, clientSecret string) error {
	cfg, err := e.Cache.Get(ctx, account.IssuerURL)
	if err != nil {
		return ierrors.Wrap(ierrors.KindNetworkError, "failed to discover issuer config", err)
	}
	if cfg.RevocationEndpoint == "" {
		return nil
	}

	token, hint := account.RefreshToken.String(), "refresh_token"
	if token == "" {
		token, hint = account.AccessToken.String(), "access_token"
	}
	if token == "" {
		return nil
	}

	values := url.Values{"token": {token}, "token_type_hint": {hint}}
	clientCredentials(values, account.ClientID, clientSecret)

	if _, err := e.doPostForm(ctx, cfg.RevocationEndpoint, values); err != nil {
		return err
	}
	account.MarkRefreshTokenRevoked()
	return nil
}
