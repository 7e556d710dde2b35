// Package session owns login state. The app always starts logged out;
// nothing is persisted across runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jaki95/music-radar/internal/api"
)

// ErrBadCredentials is returned when signin fails with the backend's
// wrong-credentials response, so the form can show a specific message.
var ErrBadCredentials = errors.New("not registered or wrong password")

type Manager struct {
	client *api.Client

	mu       sync.RWMutex
	username string
	token    string
	loggedIn bool
}

func NewManager(client *api.Client) *Manager {
	return &Manager{client: client}
}

func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	resp, err := m.client.SignIn(ctx, email, password)
	if err != nil {
		if api.IsBadRequest(err) {
			return ErrBadCredentials
		}
		return fmt.Errorf("signin failed: %w", err)
	}
	m.establish(resp, email)
	return nil
}

func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) error {
	resp, err := m.client.SignUp(ctx, email, password, displayName)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	if resp.Username == "" {
		resp.Username = displayName
	}
	m.establish(resp, email)
	return nil
}

func (m *Manager) establish(resp *api.AuthResponse, email string) {
	username := resp.Username
	if username == "" {
		username = usernameFromToken(resp.Session.AccessToken, email)
	}

	m.mu.Lock()
	m.username = username
	m.token = resp.Session.AccessToken
	m.loggedIn = true
	m.mu.Unlock()

	m.client.SetToken(resp.Session.AccessToken)
	slog.Info("session established", "username", username)
}

// Logout clears all session fields. Tab and playlist resets are handled by
// the owning app.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.username = ""
	m.token = ""
	m.loggedIn = false
	m.mu.Unlock()

	m.client.ClearToken()
	slog.Info("session cleared")
}

func (m *Manager) LoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loggedIn
}

func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// usernameFromToken recovers a display name when the signin body omits
// one. The access token is a JWT whose claims usually carry the username;
// the claims are read without signature verification since the token is
// only inspected, never trusted, on the client side. Falls back to the
// email local part.
func usernameFromToken(token, email string) string {
	if token != "" {
		parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
		if err == nil {
			if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
				for _, key := range []string{"username", "preferred_username"} {
					if v, ok := claims[key].(string); ok && v != "" {
						return v
					}
				}
				if v, ok := claims["email"].(string); ok && v != "" {
					email = v
				}
			}
		} else {
			slog.Debug("access token is not a parseable JWT", "error", err)
		}
	}

	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
