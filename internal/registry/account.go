// Package registry implements the Account Registry: the set of loaded
// Account Records keyed by shortname, lookup-by-state, per-account expiry
// (Reap), and whole-registry lock/unlock.
package registry

import (
	"strings"

	"github.com/oidcd/oidcd/internal/secretbuf"
)

// Account is the in-memory representation of one configured identity.
// Fields carrying secret material are held in a secretbuf.Buffer so they
// can be wiped deterministically on drop, unload, or lock.
type Account struct {
	Shortname string
	IssuerURL string

	ClientID     string
	ClientSecret *secretbuf.Buffer

	Scopes       []string
	RedirectURIs []string

	RefreshToken         *secretbuf.Buffer
	refreshTokenRevoked  bool
	AccessToken          *secretbuf.Buffer
	AccessTokenExpiresAt int64
	AccessTokenScopes    []string

	// Username/Password are held only for the duration of a single
	// password-flow attempt and wiped immediately after.
	Username *secretbuf.Buffer
	Password *secretbuf.Buffer

	// PKCECodeVerifier/UsedState are scratch for an in-flight
	// authorization-code flow; cleared on completion or timeout.
	PKCECodeVerifier *secretbuf.Buffer
	UsedState        string

	// DeviceCodeExpiresAt is 0 or the absolute UNIX time after which an
	// in-flight device flow's device_code is no longer pollable; cleared
	// on completion or expiry.
	DeviceCodeExpiresAt int64

	// Death is 0 (never expires) or an absolute UNIX time after which the
	// Reaper evicts this record.
	Death int64

	ConfirmationRequired bool

	// encrypted is true while the registry is locked and this record's
	// secret fields hold ciphertext rather than plaintext.
	encrypted bool
}

// NewAccount returns an Account with all secret buffers initialized to
// empty (but non-nil) buffers.
func NewAccount(shortname, issuerURL string) *Account {
	return &Account{
		Shortname:        shortname,
		IssuerURL:        issuerURL,
		ClientSecret:     secretbuf.New(nil),
		RefreshToken:     secretbuf.New(nil),
		AccessToken:      secretbuf.New(nil),
		Username:         secretbuf.New(nil),
		Password:         secretbuf.New(nil),
		PKCECodeVerifier: secretbuf.New(nil),
	}
}

// RefreshTokenIsValid reports whether the refresh token is non-empty and
// not known-revoked.
func (a *Account) RefreshTokenIsValid() bool {
	return !a.RefreshToken.Empty() && !a.refreshTokenRevoked
}

// MarkRefreshTokenRevoked records that the provider has revoked (or this
// agent has revoked) the refresh token, without requiring it to be wiped
// immediately.
func (a *Account) MarkRefreshTokenRevoked() {
	a.refreshTokenRevoked = true
}

// AccessTokenFresh reports whether the cached access token is usable for a
// request with the given minValidPeriod and requested scope.
func (a *Account) AccessTokenFresh(now, minValidPeriod int64, requestedScope string) bool {
	if a.AccessToken.Empty() {
		return false
	}
	if a.AccessTokenExpiresAt-now < minValidPeriod {
		return false
	}
	return scopeSubset(requestedScope, a.AccessTokenScopes)
}

func scopeSubset(requested string, have []string) bool {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return true
	}
	haveSet := make(map[string]struct{}, len(have))
	for _, s := range have {
		haveSet[s] = struct{}{}
	}
	for _, want := range strings.Fields(requested) {
		if _, ok := haveSet[want]; !ok {
			return false
		}
	}
	return true
}

// ClearPasswordAttempt wipes username/password after a single password-flow
// attempt, regardless of outcome.
func (a *Account) ClearPasswordAttempt() {
	a.Username.Clear()
	a.Password.Clear()
}

// ClearCodeFlowScratch wipes PKCE/state scratch on completion, timeout, or
// cancellation.
func (a *Account) ClearCodeFlowScratch() {
	a.PKCECodeVerifier.Clear()
	a.UsedState = ""
}

// DeviceCodeExpired reports whether an in-flight device flow's engine-side
// cap has passed as of now. A zero DeviceCodeExpiresAt means no device flow
// is in flight, which is never expired.
func (a *Account) DeviceCodeExpired(now int64) bool {
	return a.DeviceCodeExpiresAt > 0 && now >= a.DeviceCodeExpiresAt
}

// ClearDeviceFlowScratch wipes the device-code deadline on completion,
// expiry, or a hard failure.
func (a *Account) ClearDeviceFlowScratch() {
	a.DeviceCodeExpiresAt = 0
}

// Wipe clears every secret field. Called on replace, unload, and registry
// teardown.
func (a *Account) Wipe() {
	a.ClientSecret.Clear()
	a.RefreshToken.Clear()
	a.AccessToken.Clear()
	a.Username.Clear()
	a.Password.Clear()
	a.PKCECodeVerifier.Clear()
}
