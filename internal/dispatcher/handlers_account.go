package dispatcher

import (
	"context"
	"strings"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// handleGen implements `gen`: try each flow in the comma-joined flow
// list in order, first success wins. Refresh and password finish
// synchronously with tokens in hand; code and device only start (their
// completion arrives later via code_exchange/device_lookup), so the
// account is inserted either way and the response shape differs by which
// flow actually succeeded.
func (d *Dispatcher) handleGen(ctx context.Context, req *request) *response {
	if err := requireField(req.Config, "config"); err != nil {
		return failureFromErr(err)
	}
	wc, err := registry.ParseWireConfig(req.Config)
	if err != nil {
		return failureFromErr(err)
	}
	flows := splitFlows(req.Flow)
	if len(flows) == 0 {
		return failureFromErr(ierrors.New(ierrors.KindUnknownFlow, "flow is required"))
	}

	account := wc.ToAccount()
	clientSecret := account.ClientSecret.String()
	d.applyDeath(account, int64(req.Timeout))

	var lastErr error
	for _, f := range flows {
		switch f {
		case "refresh":
			if err := d.Engine.Refresh(ctx, account, clientSecret, 0, ""); err != nil {
				lastErr = err
				continue
			}
			if err := d.Registry.Insert(account); err != nil {
				return failureFromErr(err)
			}
			return d.genTokenResponse(account)

		case "password":
			if err := d.Engine.Password(ctx, account, clientSecret, ""); err != nil {
				lastErr = err
				continue
			}
			if err := d.Registry.Insert(account); err != nil {
				return failureFromErr(err)
			}
			return d.genTokenResponse(account)

		case "device":
			da, err := d.Engine.StartDevice(ctx, account, clientSecret)
			if err != nil {
				lastErr = err
				continue
			}
			if da.ExpiresIn > 0 {
				account.DeviceCodeExpiresAt = d.now() + da.ExpiresIn
			}
			if err := d.Registry.Insert(account); err != nil {
				return failureFromErr(err)
			}
			cfg, err := registry.ToWireConfig(account).Marshal()
			if err != nil {
				return failureFromErr(err)
			}
			return &response{
				Status: "accepted", Config: cfg,
				DeviceCode: da.DeviceCode, UserCode: da.UserCode,
				VerificationURI: da.VerificationURI, VerificationURIComplete: da.VerificationURIComplete,
				ExpiresIn: da.ExpiresIn, Interval: da.Interval,
			}

		case "code":
			start, err := d.Engine.StartAuthorizationCode(ctx, account)
			if err != nil {
				lastErr = err
				continue
			}
			if err := d.Registry.Insert(account); err != nil {
				return failureFromErr(err)
			}
			cfg, err := registry.ToWireConfig(account).Marshal()
			if err != nil {
				return failureFromErr(err)
			}
			return &response{
				Status: "accepted", Config: cfg,
				AuthorizationURL: start.AuthorizationURL, State: start.State,
				CodeVerifier: account.PKCECodeVerifier.String(),
			}

		default:
			lastErr = ierrors.New(ierrors.KindUnknownFlow, "unknown flow: "+f)
		}
	}
	if lastErr == nil {
		lastErr = ierrors.New(ierrors.KindUnknownFlow, "no flow in the list succeeded")
	}
	return failureFromErr(lastErr)
}

// applyDeath sets account.Death from an explicit request timeout, falling
// back to the agent's default lifetime when the request omitted one. A
// default of 0 (never configured) leaves Death at 0, i.e. never expires.
func (d *Dispatcher) applyDeath(account *registry.Account, requestTimeout int64) {
	if requestTimeout > 0 {
		account.Death = d.now() + requestTimeout
		return
	}
	if dt := d.Agent.DefaultTimeout(); dt > 0 {
		account.Death = d.now() + int64(dt.Seconds())
	}
}

func (d *Dispatcher) genTokenResponse(account *registry.Account) *response {
	cfg, err := registry.ToWireConfig(account).Marshal()
	if err != nil {
		return failureFromErr(err)
	}
	return &response{Status: "success", Config: cfg}
}

func splitFlows(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// handleAdd implements `add`: verify the account's refresh token via the
// refresh flow and insert it, or, if it's already loaded, update only its
// death — adding the same account twice is idempotent, not an error.
func (d *Dispatcher) handleAdd(ctx context.Context, req *request) *response {
	if err := requireField(req.Config, "config"); err != nil {
		return failureFromErr(err)
	}
	wc, err := registry.ParseWireConfig(req.Config)
	if err != nil {
		return failureFromErr(err)
	}

	if existing, ok := d.Registry.FindByShortname(wc.Shortname); ok {
		if req.Timeout > 0 {
			existing.Death = d.now() + int64(req.Timeout)
		}
		if err := d.Registry.Insert(existing); err != nil {
			return failureFromErr(err)
		}
		return success("account already loaded.")
	}

	account := wc.ToAccount()
	if req.Confirm != nil {
		account.ConfirmationRequired = *req.Confirm
	}

	if err := d.Engine.Refresh(ctx, account, account.ClientSecret.String(), 0, ""); err != nil {
		return failureFromErr(err)
	}

	d.applyDeath(account, int64(req.Timeout))
	if err := d.Registry.Insert(account); err != nil {
		return failureFromErr(err)
	}
	if account.Death > 0 {
		return success("Lifetime set to " + itoa(account.Death-d.now()) + " seconds")
	}
	return success("account added.")
}

// handleRemove implements `remove`: local unload only, no revocation.
func (d *Dispatcher) handleRemove(req *request) *response {
	if err := requireField(req.AccountName, "account_name"); err != nil {
		return failureFromErr(err)
	}
	if !d.Registry.RemoveByShortname(req.AccountName) {
		return notFound("account not loaded")
	}
	return success("account removed.")
}

// handleDelete implements `delete`: best-effort revoke, then unload
// regardless of whether the revoke succeeded (see DESIGN.md's Open
// Question decision on this point).
func (d *Dispatcher) handleDelete(ctx context.Context, req *request) *response {
	if err := requireField(req.Config, "config"); err != nil {
		return failureFromErr(err)
	}
	wc, err := registry.ParseWireConfig(req.Config)
	if err != nil {
		return failureFromErr(err)
	}

	account, ok := d.Registry.FindByShortname(wc.Shortname)
	if !ok {
		account = wc.ToAccount()
	}

	revokeErr := d.Engine.Revoke(ctx, account, account.ClientSecret.String())
	d.Registry.RemoveByShortname(wc.Shortname)

	resp := success("account deleted.")
	if revokeErr != nil {
		if ierr, ok := ierrors.As(revokeErr); ok {
			resp.Warning = string(ierr.Kind) + ": " + ierr.Message
		} else {
			resp.Warning = revokeErr.Error()
		}
	}
	return resp
}

// handleRemoveAll implements `remove_all`: wipe the whole registry.
func (d *Dispatcher) handleRemoveAll() *response {
	d.Registry.RemoveAll()
	return success("all accounts removed.")
}

// handleList implements the supplemented `list` request: shortnames and
// non-secret metadata only.
func (d *Dispatcher) handleList() *response {
	accounts := d.Registry.Snapshot()
	summaries := make([]accountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, accountSummary{
			Shortname:            a.Shortname,
			IssuerURL:            a.IssuerURL,
			Scopes:               a.Scopes,
			Death:                a.Death,
			ConfirmationRequired: a.ConfirmationRequired,
		})
	}
	return &response{Status: "success", Accounts: summaries}
}
