package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaki95/music-radar/internal/api"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newManager(handler http.HandlerFunc) (*Manager, *api.Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := api.New(server.URL, 5*time.Second)
	return NewManager(client), client, server
}

func TestSignInStoresSession(t *testing.T) {
	manager, _, server := newManager(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signin", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"user_id":  "u-1",
			"username": "yamada_taro",
			"session":  map[string]string{"access_token": "tok-abc", "refresh_token": "ref"},
		})
	})
	defer server.Close()

	err := manager.SignIn(context.Background(), "yamada@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, manager.LoggedIn())
	assert.Equal(t, "yamada_taro", manager.Username())
	assert.Equal(t, "tok-abc", manager.Token())
}

func TestSignInBadCredentials(t *testing.T) {
	manager, _, server := newManager(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid login credentials"})
	})
	defer server.Close()

	err := manager.SignIn(context.Background(), "nobody@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.False(t, manager.LoggedIn())
	assert.Empty(t, manager.Username())
}

func TestSignInOtherFailurePassesThrough(t *testing.T) {
	manager, _, server := newManager(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Supabase not configured"})
	})
	defer server.Close()

	err := manager.SignIn(context.Background(), "a@example.com", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadCredentials)
	assert.Contains(t, err.Error(), "Supabase not configured")
}

func TestUsernameFallsBackToTokenClaims(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"username": "tanaka_hanako", "sub": "u-2"})
	manager, _, server := newManager(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"user_id": "u-2",
			"session": map[string]string{"access_token": token},
		})
	})
	defer server.Close()

	err := manager.SignIn(context.Background(), "tanaka@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tanaka_hanako", manager.Username())
}

func TestUsernameFallsBackToEmailLocalPart(t *testing.T) {
	manager, _, server := newManager(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"user_id": "u-3",
			"session": map[string]string{"access_token": "not-a-jwt"},
		})
	})
	defer server.Close()

	err := manager.SignIn(context.Background(), "suzuki_ken@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "suzuki_ken", manager.Username())
}

func TestSignUpUsesDisplayName(t *testing.T) {
	manager, _, server := newManager(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signup", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"user_id": "u-4",
			"session": map[string]string{"access_token": "tok"},
		})
	})
	defer server.Close()

	err := manager.SignUp(context.Background(), "sato@example.com", "pw", "sato_yuki")
	require.NoError(t, err)
	assert.Equal(t, "sato_yuki", manager.Username())
}

func TestLogoutClearsEverything(t *testing.T) {
	var lastAuth string
	manager, client, server := newManager(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		if r.URL.Path == "/auth/signin" {
			json.NewEncoder(w).Encode(map[string]any{
				"user_id":  "u-1",
				"username": "yamada_taro",
				"session":  map[string]string{"access_token": "tok-abc"},
			})
			return
		}
		w.Write([]byte(`[]`))
	})
	defer server.Close()

	require.NoError(t, manager.SignIn(context.Background(), "yamada@example.com", "pw"))
	manager.Logout()

	assert.False(t, manager.LoggedIn())
	assert.Empty(t, manager.Username())
	assert.Empty(t, manager.Token())

	// The API client must have dropped the bearer token too.
	_, err := client.NearbySongs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lastAuth)
}
