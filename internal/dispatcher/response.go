package dispatcher

import "github.com/oidcd/oidcd/internal/ierrors"

// response is a loosely typed wire response. The request table's
// handlers each populate only the fields their status/verb calls for;
// omitempty on every field keeps the wire shape matching the literal
// scenarios rather than padding every reply with zero values.
type response struct {
	Status string `json:"status"`

	Error            string `json:"error,omitempty"`
	OidcError        string `json:"oidc_error,omitempty"`
	OidcDescription  string `json:"oidc_error_description,omitempty"`
	Info             string `json:"info,omitempty"`
	Warning          string `json:"warning,omitempty"`
	Message          string `json:"message,omitempty"`

	Config           string `json:"config,omitempty"`
	AccessToken      string `json:"access_token,omitempty"`
	IssuerURL        string `json:"issuer_url,omitempty"`
	ExpiresAt        int64  `json:"expires_at,omitempty"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	State            string `json:"state,omitempty"`
	CodeVerifier     string `json:"code_verifier,omitempty"`

	DeviceCode              string `json:"device_code,omitempty"`
	UserCode                string `json:"user_code,omitempty"`
	VerificationURI         string `json:"verification_uri,omitempty"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int64  `json:"expires_in,omitempty"`
	Interval                int64  `json:"interval,omitempty"`
	Pending                 bool   `json:"pending,omitempty"`

	Accounts []accountSummary `json:"accounts,omitempty"`
}

// accountSummary is the non-secret metadata a `list` response exposes for
// one loaded account.
type accountSummary struct {
	Shortname             string   `json:"shortname"`
	IssuerURL             string   `json:"issuer_url"`
	Scopes                []string `json:"scopes,omitempty"`
	Death                 int64    `json:"death,omitempty"`
	ConfirmationRequired  bool     `json:"confirmation_required"`
}

func success(info string) *response {
	return &response{Status: "success", Info: info}
}

func notFound(message string) *response {
	return &response{Status: "notfound", Error: message}
}

func badRequest(message string) *response {
	return &response{Status: "badrequest", Error: message}
}

// failureFromErr renders any error returned by a handler as a `failure`
// response, preferring the typed ierrors.Kind when available. A
// KindBadRequest error is instead rendered as `badrequest`, since the
// dispatcher's own status vocabulary distinguishes malformed requests
// from failures the provider or registry produced.
func failureFromErr(err error) *response {
	ierr, ok := ierrors.As(err)
	if !ok {
		return &response{Status: "failure", Error: "internal"}
	}
	if ierr.Kind == ierrors.KindBadRequest {
		return badRequest(ierr.Message)
	}
	resp := &response{Status: "failure", Error: string(ierr.Kind), Message: ierr.Message}
	if ierr.Kind == ierrors.KindOidcError {
		resp.OidcError = ierr.OidcErrorCode
		resp.OidcDescription = ierr.OidcErrorDescription
	}
	return resp
}
