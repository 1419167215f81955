package flow

import (
	"context"
	"net/url"
	"time"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// Refresh implements getAccessTokenUsingRefreshFlow: serve
// the cached access token without a network call when it is still fresh
// for minValidPeriod/scope, otherwise exchange the refresh token.
func (e *Engine) Refresh(ctx context.Context, account *registry.Account, clientSecret string, minValidPeriod int64, scope string) error {
	now := time.Now().Unix()
	if account.AccessTokenFresh(now, minValidPeriod, scope) {
		return nil
	}
	if !account.RefreshTokenIsValid() {
		return ierrors.New(ierrors.KindNoRefreshToken, "no valid refresh token for "+account.Shortname)
	}

	cfg, err := e.Cache.Get(ctx, account.IssuerURL)
	if err != nil {
		return ierrors.Wrap(ierrors.KindNetworkError, "failed to discover issuer config", err)
	}
	if cfg.TokenEndpoint == "" {
		return ierrors.New(ierrors.KindOidcError, "issuer has no token endpoint")
	}

	values := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {account.RefreshToken.String()}}
	clientCredentials(values, account.ClientID, clientSecret)
	if scope != "" {
		values.Set("scope", scope)
	}

	tr, err := e.postForm(ctx, cfg.TokenEndpoint, values)
	if err != nil {
		if ierr, ok := ierrors.As(err); ok && ierr.Kind == ierrors.KindOidcError && ierr.OidcErrorCode == "invalid_grant" {
			account.MarkRefreshTokenRevoked()
		}
		return err
	}
	applyToken(account, tr, now)
	return nil
}
