package ierrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with cause",
			err:  &Error{Kind: KindBadRequest, Message: "missing field", Cause: errors.New("boom")},
			want: "bad_request: missing field: boom",
		},
		{
			name: "without cause",
			err:  &Error{Kind: KindInternal, Message: "invariant violated"},
			want: "internal: invariant violated",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("underlying")
	err := Wrap(KindNetworkError, "POST failed", cause)
	assert.Equal(t, cause, err.Unwrap())

	noCause := New(KindTimeout, "deadline exceeded")
	assert.Nil(t, noCause.Unwrap())
}

func TestOIDC(t *testing.T) {
	t.Parallel()
	err := OIDC("invalid_grant", "refresh token expired")
	assert.Equal(t, KindOidcError, err.Kind)
	assert.Equal(t, "invalid_grant", err.OidcErrorCode)
	assert.Equal(t, "refresh token expired", err.OidcErrorDescription)
}

func TestAs(t *testing.T) {
	t.Parallel()
	var err error = New(KindUserDenied, "user declined")
	e, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, KindUserDenied, e.Kind)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
