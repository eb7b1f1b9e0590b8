package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFirebase struct {
	refreshes atomic.Int32
}

func (f *fakeFirebase) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	fail := func(w http.ResponseWriter, message string) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": message}})
	}

	password := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "api-key" {
			fail(w, "API_KEY_INVALID")
			return
		}
		var req passwordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if !req.ReturnSecureToken {
			t.Errorf("returnSecureToken not set")
		}
		switch req.Email {
		case "taken@example.com":
			fail(w, "EMAIL_EXISTS")
		case "weak@example.com":
			fail(w, "WEAK_PASSWORD : Password should be at least 6 characters")
		default:
			if req.Password != "secret1" {
				fail(w, "INVALID_LOGIN_CREDENTIALS")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"localId":      "uid-1",
				"email":        req.Email,
				"idToken":      "id-0",
				"refreshToken": "rt-1",
				"expiresIn":    "3600",
			})
		}
	}
	mux.HandleFunc("POST /v1/accounts:signUp", password)
	mux.HandleFunc("POST /v1/accounts:signInWithPassword", password)

	mux.HandleFunc("POST /v1/token", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "api-key" {
			t.Errorf("token call without key")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		switch r.PostForm.Get("refresh_token") {
		case "rt-1":
			n := f.refreshes.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "id-fresh",
				"id_token":      "id-fresh",
				"expires_in":    "3600",
				"token_type":    "Bearer",
				"refresh_token": "rt-1",
				"user_id":       "uid-1",
				"project_id":    "p",
				"n":             n,
			})
		case "boom":
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{})
		default:
			fail(w, "INVALID_REFRESH_TOKEN")
		}
	})
	return mux
}

func newTestFirebase(t *testing.T) (*Firebase, *fakeFirebase) {
	t.Helper()
	fake := &fakeFirebase{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	return NewFirebase("api-key", srv.URL+"/v1/", srv.URL+"/v1/token", srv.Client()), fake
}

func TestFirebaseSignInAndSignUp(t *testing.T) {
	t.Parallel()

	fb, _ := newTestFirebase(t)
	ctx := context.Background()

	t.Run("sign in", func(t *testing.T) {
		t.Parallel()
		creds, err := fb.SignIn(ctx, "a@example.com", "secret1")
		require.NoError(t, err)
		require.Equal(t, "uid-1", creds.UID)
		require.Equal(t, "rt-1", creds.RefreshToken)
		require.Equal(t, "id-0", creds.IDToken)
		require.False(t, creds.ExpiresAt.IsZero())
	})

	t.Run("sign up", func(t *testing.T) {
		t.Parallel()
		creds, err := fb.SignUp(ctx, "new@example.com", "secret1")
		require.NoError(t, err)
		require.Equal(t, "new@example.com", creds.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		_, err := fb.SignIn(ctx, "a@example.com", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("email exists", func(t *testing.T) {
		t.Parallel()
		_, err := fb.SignUp(ctx, "taken@example.com", "secret1")
		require.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("other provider errors keep the message", func(t *testing.T) {
		t.Parallel()
		_, err := fb.SignUp(ctx, "weak@example.com", "x")
		require.Error(t, err)
		require.Contains(t, err.Error(), "WEAK_PASSWORD")
	})
}

func TestFirebaseRefreshIsAlwaysForced(t *testing.T) {
	t.Parallel()

	fb, fake := newTestFirebase(t)
	ctx := context.Background()

	for range 3 {
		creds, err := fb.Refresh(ctx, "rt-1")
		require.NoError(t, err)
		require.Equal(t, "id-fresh", creds.IDToken)
		require.Equal(t, "uid-1", creds.UID)
		require.Equal(t, "rt-1", creds.RefreshToken)
	}
	require.Equal(t, int32(3), fake.refreshes.Load())
}

func TestFirebaseRefreshErrors(t *testing.T) {
	t.Parallel()

	fb, _ := newTestFirebase(t)
	ctx := context.Background()

	_, err := fb.Refresh(ctx, "revoked")
	require.ErrorIs(t, err, ErrSessionExpired)

	_, err = fb.Refresh(ctx, "boom")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrSessionExpired)

	_, err = fb.Refresh(ctx, "")
	require.ErrorIs(t, err, ErrNoIdentity)
}

func TestProviderError(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, providerError(400, "USER_DISABLED"), ErrInvalidCredentials)
	require.ErrorIs(t, providerError(400, "TOKEN_EXPIRED"), ErrSessionExpired)
	require.EqualError(t, providerError(500, ""), "identity provider returned status 500")
}
