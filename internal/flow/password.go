package flow

import (
	"context"
	"net/url"
	"time"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// Password implements the resource-owner password flow: prompt for
// credentials via the Frontend Channel if they're not already on
// the record, attempt exactly one token POST, then wipe them regardless of
// outcome.
func (e *Engine) Password(ctx context.Context, account *registry.Account, clientSecret, scope string) error {
	if account.Username.Empty() || account.Password.Empty() {
		if e.Prompter == nil {
			return ierrors.New(ierrors.KindUserCancel, "no credential prompter available")
		}
		username, password, err := e.Prompter.RequestCredentials(ctx, account)
		if err != nil {
			return err
		}
		account.Username.Set([]byte(username))
		account.Password.Set([]byte(password))
	}
	defer account.ClearPasswordAttempt()

	cfg, err := e.Cache.Get(ctx, account.IssuerURL)
	if err != nil {
		return ierrors.Wrap(ierrors.KindNetworkError, "failed to discover issuer config", err)
	}
	if cfg.TokenEndpoint == "" {
		return ierrors.New(ierrors.KindOidcError, "issuer has no token endpoint")
	}

	values := url.Values{
		"grant_type": {"password"},
		"username":   {account.Username.String()},
		"password":   {account.Password.String()},
	}
	clientCredentials(values, account.ClientID, clientSecret)
	if scope != "" {
		values.Set("scope", scope)
	}

	tr, err := e.postForm(ctx, cfg.TokenEndpoint, values)
	if err != nil {
		return err
	}
	applyToken(account, tr, time.Now().Unix())
	return nil
}
