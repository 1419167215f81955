package registry

import (
	"encoding/json"
	"strings"

	"github.com/oidcd/oidcd/internal/ierrors"
)

// WireConfig is the JSON shape of an Account Record as it crosses the
// agent socket in a request's or response's `config` field. It omits
// everything that is either ephemeral (username/password, PKCE/state
// scratch) or derived at runtime from the Issuer Config Cache.
type WireConfig struct {
	Shortname             string   `json:"shortname"`
	IssuerURL             string   `json:"issuer_url"`
	ClientID              string   `json:"client_id,omitempty"`
	ClientSecret          string   `json:"client_secret,omitempty"`
	Scope                 string   `json:"scope,omitempty"`
	RedirectURIs          []string `json:"redirect_uris,omitempty"`
	RefreshToken          string   `json:"refresh_token,omitempty"`
	AccessToken           string   `json:"access_token,omitempty"`
	AccessTokenExpiresAt  int64    `json:"access_token_expires_at,omitempty"`
	Death                 int64    `json:"death,omitempty"`
	ConfirmationRequired  bool     `json:"confirmation_required,omitempty"`
}

// ParseWireConfig decodes a `config` field's JSON payload.
func ParseWireConfig(raw string) (*WireConfig, error) {
	var wc WireConfig
	if err := json.Unmarshal([]byte(raw), &wc); err != nil {
		return nil, ierrors.Wrap(ierrors.KindBadRequest, "config is not valid JSON", err)
	}
	if wc.Shortname == "" {
		return nil, ierrors.New(ierrors.KindBadRequest, "config is missing shortname")
	}
	if wc.IssuerURL == "" {
		return nil, ierrors.New(ierrors.KindBadRequest, "config is missing issuer_url")
	}
	return &wc, nil
}

// ToAccount builds a fresh Account from a WireConfig. Secret fields land
// in their respective secretbuf.Buffer.
func (wc *WireConfig) ToAccount() *Account {
	a := NewAccount(wc.Shortname, wc.IssuerURL)
	a.ClientID = wc.ClientID
	a.ClientSecret.Set([]byte(wc.ClientSecret))
	if wc.Scope != "" {
		a.Scopes = strings.Fields(wc.Scope)
	}
	a.RedirectURIs = append([]string(nil), wc.RedirectURIs...)
	a.RefreshToken.Set([]byte(wc.RefreshToken))
	a.AccessToken.Set([]byte(wc.AccessToken))
	a.AccessTokenExpiresAt = wc.AccessTokenExpiresAt
	a.Death = wc.Death
	a.ConfirmationRequired = wc.ConfirmationRequired
	return a
}

// ToWireConfig renders account back into the wire shape, e.g. for the
// response to a successful gen.
func ToWireConfig(a *Account) *WireConfig {
	return &WireConfig{
		Shortname:            a.Shortname,
		IssuerURL:            a.IssuerURL,
		ClientID:             a.ClientID,
		ClientSecret:         a.ClientSecret.String(),
		Scope:                strings.Join(a.Scopes, " "),
		RedirectURIs:         append([]string(nil), a.RedirectURIs...),
		RefreshToken:         a.RefreshToken.String(),
		AccessToken:          a.AccessToken.String(),
		AccessTokenExpiresAt: a.AccessTokenExpiresAt,
		Death:                a.Death,
		ConfirmationRequired: a.ConfirmationRequired,
	}
}

// Marshal renders wc as the JSON string carried in a response's `config`
// field.
func (wc *WireConfig) Marshal() (string, error) {
	data, err := json.Marshal(wc)
	if err != nil {
		return "", ierrors.Wrap(ierrors.KindInternal, "failed to marshal config", err)
	}
	return string(data), nil
}
