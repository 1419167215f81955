package dispatcher

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/oidcd/oidcd/internal/ierrors"
	"github.com/oidcd/oidcd/internal/registry"
)

// handleRegister implements `register`: dynamic client registration.
// Per DESIGN.md's Open Question decision, registering never inserts into
// the Registry — callers follow up with `add`.
func (d *Dispatcher) handleRegister(ctx context.Context, req *request) *response {
	if err := requireField(req.Config, "config"); err != nil {
		return failureFromErr(err)
	}
	wc, err := registry.ParseWireConfig(req.Config)
	if err != nil {
		return failureFromErr(err)
	}
	flows := splitFlows(req.FlowList)
	if len(flows) == 0 {
		return failureFromErr(ierrors.New(ierrors.KindUnknownFlow, "flow_list is required"))
	}

	account := wc.ToAccount()
	result, err := d.Engine.Register(ctx, account, flows, req.AccessToken)
	if err != nil {
		return failureFromErr(err)
	}

	wc.ClientID = result.Response.ClientID
	wc.ClientSecret = result.Response.ClientSecret
	if result.Response.Scope != "" {
		wc.Scope = result.Response.Scope
	}
	cfg, err := wc.Marshal()
	if err != nil {
		return failureFromErr(err)
	}

	resp := &response{Status: "success", Config: cfg, Info: result.Response.Note}
	if result.Warning != nil {
		resp.Warning = result.Warning.Error()
	}
	return resp
}

// handleCodeExchange implements `code_exchange`: finalize a pending
// authorization-code flow. The caller identifies the account by the
// shortname in `config`; `state` and `code_verifier` must match what the
// originating `gen` call recorded, guarding against a stale or
// forged exchange.
func (d *Dispatcher) handleCodeExchange(ctx context.Context, req *request) *response {
	for _, f := range []struct{ name, value string }{
		{"config", req.Config}, {"code", req.Code},
		{"redirect_uri", req.RedirectURI}, {"state", req.State},
		{"code_verifier", req.CodeVerifier},
	} {
		if err := requireField(f.value, f.name); err != nil {
			return failureFromErr(err)
		}
	}

	wc, err := registry.ParseWireConfig(req.Config)
	if err != nil {
		return failureFromErr(err)
	}
	account, ok := d.Registry.FindByShortname(wc.Shortname)
	if !ok {
		return notFound("no pending code flow for this account")
	}
	if account.UsedState != req.State || account.PKCECodeVerifier.String() != req.CodeVerifier {
		return badRequest("state or code_verifier does not match the pending flow")
	}

	if err := d.Engine.ExchangeCode(ctx, account, account.ClientSecret.String(), req.Code, req.RedirectURI, req.State); err != nil {
		return failureFromErr(err)
	}
	if err := d.Registry.Insert(account); err != nil {
		return failureFromErr(err)
	}
	d.Registry.MarkStateCompleted(req.State, account.Shortname)

	cfg, err := registry.ToWireConfig(account).Marshal()
	if err != nil {
		return failureFromErr(err)
	}
	return &response{Status: "success", Config: cfg}
}

// handleStateLookup implements `state_lookup`: the Callback Receiver's
// one-shot drain of a just-completed code flow.
func (d *Dispatcher) handleStateLookup(req *request) *response {
	if err := requireField(req.State, "state"); err != nil {
		return failureFromErr(err)
	}
	account, ok := d.Registry.DrainState(req.State)
	if !ok {
		return notFound("no completed code flow for this state")
	}
	cfg, err := registry.ToWireConfig(account).Marshal()
	if err != nil {
		return failureFromErr(err)
	}
	return &response{Status: "success", Config: cfg}
}

// handleTermHTTP implements `term_http`: tear down the Callback Receiver
// for a state that never got exchanged, transitioning the account's code
// flow from Initiated to TimedOut.
func (d *Dispatcher) handleTermHTTP(req *request) *response {
	if err := requireField(req.State, "state"); err != nil {
		return failureFromErr(err)
	}
	account, ok := d.Registry.FindByState(req.State)
	if !ok {
		return notFound("no pending code flow for this state")
	}
	account.ClearCodeFlowScratch()
	return success("callback receiver torn down.")
}

// handleDeviceLookup implements `device_lookup`: one poll of the device
// token endpoint, enforcing the device code's own engine-side cap before
// the poll ever reaches the provider. The cap is tracked as an absolute
// deadline on the account (set when `gen` started the device flow); a
// device_lookup for an account that never went through `gen` falls back
// to seeding the deadline from the caller-supplied expires_in on its
// first poll, so the cap still holds even without a prior gen call.
func (d *Dispatcher) handleDeviceLookup(ctx context.Context, req *request) *response {
	if err := requireField(req.Config, "config"); err != nil {
		return failureFromErr(err)
	}
	if err := requireField(req.Device, "device"); err != nil {
		return failureFromErr(err)
	}
	wc, err := registry.ParseWireConfig(req.Config)
	if err != nil {
		return failureFromErr(err)
	}
	var dw deviceWire
	if err := json.Unmarshal([]byte(req.Device), &dw); err != nil {
		return failureFromErr(ierrors.Wrap(ierrors.KindBadRequest, "device is not valid JSON", err))
	}
	if strings.TrimSpace(dw.DeviceCode) == "" {
		return failureFromErr(ierrors.New(ierrors.KindBadRequest, "device is missing device_code"))
	}

	account, ok := d.Registry.FindByShortname(wc.Shortname)
	if !ok {
		account = wc.ToAccount()
	}
	if account.DeviceCodeExpiresAt == 0 && dw.ExpiresIn > 0 {
		account.DeviceCodeExpiresAt = d.now() + dw.ExpiresIn
	}
	if account.DeviceCodeExpired(d.now()) {
		account.ClearDeviceFlowScratch()
		return failureFromErr(ierrors.OIDC("expired_token", "device code expired before authorization completed"))
	}

	result, err := d.Engine.PollDevice(ctx, account, account.ClientSecret.String(), dw.DeviceCode, dw.Interval)
	if err != nil {
		account.ClearDeviceFlowScratch()
		return failureFromErr(err)
	}
	if result.Pending {
		return &response{Status: "accepted", Pending: true, Interval: result.RetryAfter}
	}
	account.ClearDeviceFlowScratch()

	if err := d.Registry.Insert(account); err != nil {
		return failureFromErr(err)
	}
	cfg, err := registry.ToWireConfig(account).Marshal()
	if err != nil {
		return failureFromErr(err)
	}
	return &response{Status: "success", Config: cfg}
}
