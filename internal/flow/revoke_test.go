package flow

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Revoke_PrefersRefreshToken(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	var gotToken, gotHint string
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotToken = r.FormValue("token")
		gotHint = r.FormValue("token_type_hint")
		w.WriteHeader(http.StatusOK)
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)
	a.RefreshToken.Set([]byte("R1"))
	a.AccessToken.Set([]byte("A1"))

	require.NoError(t, e.Revoke(context.Background(), a, "secret"))
	assert.Equal(t, "R1", gotToken)
	assert.Equal(t, "refresh_token", gotHint)
	assert.False(t, a.RefreshTokenIsValid())
}

func TestEngine_Revoke_FallsBackToAccessToken(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	var gotHint string
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotHint = r.FormValue("token_type_hint")
		w.WriteHeader(http.StatusOK)
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)
	a.AccessToken.Set([]byte("A1"))

	require.NoError(t, e.Revoke(context.Background(), a, "secret"))
	assert.Equal(t, "access_token", gotHint)
}

func TestEngine_Revoke_NoTokensIsNoop(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("revocation endpoint must not be called when there is no token")
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)
	assert.NoError(t, e.Revoke(context.Background(), a, "secret"))
}

func TestEngine_Revoke_SurfacesProviderError(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)
	a.RefreshToken.Set([]byte("R1"))

	err := e.Revoke(context.Background(), a, "secret")
	require.Error(t, err)
}
