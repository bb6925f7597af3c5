package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves the identity endpoints against an in-memory account map.
func fakeProvider(t *testing.T) (*httptest.Server, map[string]string) {
	t.Helper()
	accounts := map[string]string{} // email -> password

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		pw, ok := accounts[req.Email]
		if !ok {
			writeAuthError(w, "EMAIL_NOT_FOUND")
			return
		}
		if pw != req.Password {
			writeAuthError(w, "INVALID_PASSWORD")
			return
		}
		writeCreds(w, req.Email)
	})
	mux.HandleFunc("POST /v1/accounts:signUp", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if _, ok := accounts[req.Email]; ok {
			writeAuthError(w, "EMAIL_EXISTS")
			return
		}
		accounts[req.Email] = req.Password
		writeCreds(w, req.Email)
	})
	mux.HandleFunc("POST /v1/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "INVALID_REFRESH_TOKEN"}})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id_token":      "minted-" + r.Form.Get("refresh_token"),
			"refresh_token": r.Form.Get("refresh_token"),
			"user_id":       "uid-1",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, accounts
}

func writeAuthError(w http.ResponseWriter, code string) {
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": code}})
}

func writeCreds(w http.ResponseWriter, email string) {
	json.NewEncoder(w).Encode(map[string]string{
		"localId":      "uid-" + email,
		"email":        email,
		"idToken":      "id-token",
		"refreshToken": "refresh-token",
	})
}

func TestSignIn(t *testing.T) {
	srv, accounts := fakeProvider(t)
	accounts["user@example.com"] = "secret123"
	c := NewClient(srv.URL, srv.URL, "test-key")

	creds, err := c.SignIn(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", creds.Email)
	assert.NotEmpty(t, creds.IDToken)
	assert.NotEmpty(t, creds.RefreshToken)

	_, err = c.SignIn(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = c.SignIn(context.Background(), "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSignInOrRegister_FallsThroughToSignUp(t *testing.T) {
	srv, accounts := fakeProvider(t)
	c := NewClient(srv.URL, srv.URL, "test-key")

	// Unknown email: one action both registers and signs in.
	creds, err := c.SignInOrRegister(context.Background(), "new@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", creds.Email)
	assert.Equal(t, "secret123", accounts["new@example.com"])

	// Known email with the wrong password must not register anything.
	_, err = c.SignInOrRegister(context.Background(), "new@example.com", "different")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestSignIn_OtherErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAuthError(w, "USER_DISABLED")
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, srv.URL, "test-key")

	_, err := c.SignIn(context.Background(), "user@example.com", "secret123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrBadCredentials)
	assert.Contains(t, err.Error(), "user disabled")
}

func TestMintToken(t *testing.T) {
	srv, _ := fakeProvider(t)
	c := NewClient(srv.URL, srv.URL, "test-key")

	token, err := c.MintToken(context.Background(), "refresh-abc")
	require.NoError(t, err)
	assert.Equal(t, "minted-refresh-abc", token)

	_, err = c.MintToken(context.Background(), "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid refresh token"))
}
