package flow

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oidcd/oidcd/internal/ierrors"
)

func TestEngine_Refresh_CacheHit(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	a := newTestAccount("https://issuer.example.com")
	a.AccessToken.Set([]byte("cached"))
	a.AccessTokenExpiresAt = time.Now().Unix() + 3600
	a.AccessTokenScopes = []string{"openid", "offline_access"}

	require.NoError(t, e.Refresh(context.Background(), a, "", 0, "openid"))
	assert.Equal(t, "cached", a.AccessToken.String())
}

func TestEngine_Refresh_NetworkCallAndRotation(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	var gotGrant string
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGrant = r.FormValue("grant_type")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "A2",
			"refresh_token": "R2",
			"expires_in":    3600,
			"scope":         "openid offline_access",
		})
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)
	a.RefreshToken.Set([]byte("R1"))

	require.NoError(t, e.Refresh(context.Background(), a, "secret", 300, ""))
	assert.Equal(t, "refresh_token", gotGrant)
	assert.Equal(t, "A2", a.AccessToken.String())
	assert.Equal(t, "R2", a.RefreshToken.String())
}

func TestEngine_Refresh_NoRefreshToken(t *testing.T) {
	t.Parallel()
	e := newTestEngine()
	a := newTestAccount("https://issuer.example.com")

	err := e.Refresh(context.Background(), a, "", 0, "")
	require.Error(t, err)
	ierr, ok := ierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, ierrors.KindNoRefreshToken, ierr.Kind)
}

func TestEngine_Refresh_InvalidGrantMarksRevoked(t *testing.T) {
	t.Parallel()
	srv, mux := testIssuer(t)
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":             "invalid_grant",
			"error_description": "refresh token expired",
		})
	})

	e := newTestEngine()
	a := newTestAccount(srv.URL)
	a.RefreshToken.Set([]byte("R1"))

	err := e.Refresh(context.Background(), a, "secret", 0, "")
	require.Error(t, err)
	assert.False(t, a.RefreshTokenIsValid())
}
