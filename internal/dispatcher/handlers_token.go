package dispatcher

import (
	"context"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// handleAccessToken implements `access_token`: autoload on miss, confirm
// if required, refresh, respond, then
// re-insert to re-commit the (possibly re-encrypted) record.
func (d *Dispatcher) handleAccessToken(ctx context.Context, req *request) *response {
	if err := requireField(req.AccountName, "account_name"); err != nil {
		return failureFromErr(err)
	}

	account, ok := d.Registry.FindByShortname(req.AccountName)
	if !ok {
		loaded, err := d.autoload(ctx, req.AccountName)
		if err != nil {
			return failureFromErr(err)
		}
		account = loaded
	}

	if account.ConfirmationRequired || d.Agent.ConfirmDefault() {
		if d.Frontend == nil {
			return failureFromErr(ierrors.New(ierrors.KindUserDenied, "confirmation required but no frontend is attached"))
		}
		if err := d.Frontend.RequestConfirm(ctx, account.Shortname, req.ApplicationHint); err != nil {
			return failureFromErr(err)
		}
	}

	if err := d.Engine.Refresh(ctx, account, account.ClientSecret.String(), int64(req.MinValidPeriod), req.Scope); err != nil {
		return failureFromErr(err)
	}

	resp := &response{
		Status:      "success",
		AccessToken: account.AccessToken.String(),
		IssuerURL:   account.IssuerURL,
		ExpiresAt:   account.AccessTokenExpiresAt,
	}

	if err := d.Registry.Insert(account); err != nil {
		return failureFromErr(err)
	}
	return resp
}

// autoload implements step 2 of access_token: ask the Frontend for a
// stored config when the account isn't loaded and no_autoload is false,
// then load it via the add path with the default timeout.
func (d *Dispatcher) autoload(ctx context.Context, shortname string) (*registry.Account, error) {
	if d.Agent.NoAutoload() {
		return nil, ierrors.New(ierrors.KindAccountNotLoaded, "account not loaded")
	}
	if d.Frontend == nil {
		return nil, ierrors.New(ierrors.KindAccountNotLoaded, "account not loaded")
	}

	cfgStr, err := d.Frontend.RequestAutoload(ctx, shortname)
	if err != nil {
		return nil, ierrors.New(ierrors.KindAccountNotLoaded, "account not loaded")
	}

	wc, err := registry.ParseWireConfig(cfgStr)
	if err != nil {
		return nil, err
	}
	account := wc.ToAccount()
	if timeout := d.Agent.DefaultTimeout(); timeout > 0 {
		account.Death = d.now() + int64(timeout.Seconds())
	}
	if err := d.Registry.Insert(account); err != nil {
		return nil, err
	}
	return account, nil
}
