// Package ierrors defines the agent's error taxonomy. Every fallible
// operation in oidcd returns one of these kinds so the dispatcher can
// translate it to a single wire error without inspecting error strings.
package ierrors

import "fmt"

// Kind identifies a class of failure, independent of the underlying cause.
type Kind string

// Error kinds.
const (
	KindBadRequest           Kind = "bad_request"
	KindAccountNotLoaded     Kind = "account_not_loaded"
	KindAccountAlreadyLoaded Kind = "account_already_loaded"
	KindAgentLocked          Kind = "agent_locked"
	KindBadPassword          Kind = "bad_password"
	KindNetworkError         Kind = "network_error"
	KindOidcError            Kind = "oidc_error"
	KindNoRefreshToken       Kind = "no_refresh_token"
	KindInsufficientScope    Kind = "insufficient_scope"
	KindUnknownFlow          Kind = "unknown_flow"
	KindNoRedirectUris       Kind = "no_redirect_uris"
	KindUserDenied           Kind = "user_denied"
	KindUserCancel           Kind = "user_cancel"
	KindTimeout              Kind = "timeout"
	KindInternal             Kind = "internal"
)

// Error is the agent's single error type. Message MUST NOT ever contain
// secret material (tokens, passwords, client secrets).
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// OidcErrorCode/OidcErrorDescription carry a provider-reported error body
	// verbatim: it's already public, the provider sent it to us.
	OidcErrorCode        string
	OidcErrorDescription string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around a cause. The cause's own
// message is never echoed back over IPC; only Message is.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// OIDC builds an Error carrying a verbatim provider error body.
func OIDC(code, description string) *Error {
	return &Error{
		Kind:                 KindOidcError,
		Message:              "provider returned an error",
		OidcErrorCode:        code,
		OidcErrorDescription: description,
	}
}

// As reports whether err is itself an *Error and returns it. There are no
// per-Kind sentinels for errors.Is; callers use As and compare Kind
// directly.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
