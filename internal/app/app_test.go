package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaki95/music-radar/config"
	"github.com/jaki95/music-radar/internal/domain"
	"github.com/jaki95/music-radar/internal/playlists"
	"github.com/jaki95/music-radar/internal/session"
)

// fakeBackend covers the endpoints an app session touches.
type fakeBackend struct {
	playlists   []domain.Playlist
	shares      atomic.Int32
	failSignin  bool
	lastShare   atomic.Value
	nearbyCount atomic.Int32
}

func (b *fakeBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/signin":
			if b.failSignin {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "Invalid login credentials"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"user_id":  "u-1",
				"username": "yamada_taro",
				"session":  map[string]string{"access_token": "tok-abc"},
			})
		case r.URL.Path == "/charts":
			w.Write([]byte(`[{"id": "ZRtdQ81jPUQ", "title": "アイドル", "artist": "YOASOBI"}]`))
		case r.URL.Path == "/songs" && r.Method == http.MethodGet:
			b.nearbyCount.Add(1)
			w.Write([]byte(`[]`))
		case r.URL.Path == "/songs" && r.Method == http.MethodPost:
			var share map[string]any
			json.NewDecoder(r.Body).Decode(&share)
			b.lastShare.Store(share)
			b.shares.Add(1)
			w.WriteHeader(http.StatusCreated)
		case r.URL.Path == "/playlists" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(b.playlists)
		case r.URL.Path == "/playlists" && r.Method == http.MethodPost:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			created := domain.Playlist{ID: "pl-1", Title: body["title"]}
			b.playlists = append(b.playlists, created)
			json.NewEncoder(w).Encode(created)
		default:
			w.Write([]byte(`[]`))
		}
	}
}

func newApp(t *testing.T, backend *fakeBackend) (*App, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(backend.handler())

	cfg := config.Default()
	cfg.Backend.BaseURL = server.URL
	cfg.Timers.NearbyPollMS = 50
	cfg.Timers.PlaybackTickMS = 10
	cfg.Timers.ChatReplyMS = 10

	a := New(cfg)
	t.Cleanup(func() {
		a.Close()
		server.Close()
	})
	return a, server
}

func TestStartLoadsChartsAndLocation(t *testing.T) {
	a, _ := newApp(t, &fakeBackend{})
	a.Start(nil)

	require.Len(t, a.Charts(), 1)
	assert.Equal(t, "YOASOBI", a.Charts()[0].Artist)

	_, _, loaded := a.Presence.Location()
	assert.True(t, loaded)
}

func TestSignInSyncsPlaylistsAndStartsPolling(t *testing.T) {
	backend := &fakeBackend{}
	a, _ := newApp(t, backend)
	a.Start(nil)

	require.NoError(t, a.SignIn(context.Background(), "yamada@example.com", "pw"))
	assert.True(t, a.Session.LoggedIn())

	// The empty playlist list triggered the server-side default creation.
	lists := a.Playlists.Playlists()
	require.Len(t, lists, 1)
	assert.Equal(t, "pl-1", lists[0].ID)

	// Polling is running.
	assert.Eventually(t, func() bool { return backend.nearbyCount.Load() >= 2 }, time.Second, 10*time.Millisecond)
}

func TestSignInFailureLeavesAppLoggedOut(t *testing.T) {
	backend := &fakeBackend{failSignin: true}
	a, _ := newApp(t, backend)
	a.Start(nil)

	err := a.SignIn(context.Background(), "nobody@example.com", "wrong")
	assert.ErrorIs(t, err, session.ErrBadCredentials)
	assert.False(t, a.Session.LoggedIn())

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, backend.nearbyCount.Load(), "no polling without a session")
}

func TestLogoutResetsEverything(t *testing.T) {
	backend := &fakeBackend{}
	a, _ := newApp(t, backend)
	a.Start(nil)

	require.NoError(t, a.SignIn(context.Background(), "yamada@example.com", "pw"))
	a.SetTab(TabNearby)
	a.OpenModal(ModalProfile)

	a.Logout()

	assert.False(t, a.Session.LoggedIn())
	assert.Empty(t, a.Session.Username())
	assert.Equal(t, TabHome, a.ActiveTab())
	assert.Equal(t, ModalNone, a.ActiveModal())

	// Playlists are back to exactly the single placeholder entry.
	lists := a.Playlists.Playlists()
	require.Len(t, lists, 1)
	assert.Equal(t, playlists.PlaceholderID, lists[0].ID)

	// Polling stopped.
	settled := backend.nearbyCount.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, settled, backend.nearbyCount.Load())
}

func TestPlaySharesWhenLoggedIn(t *testing.T) {
	backend := &fakeBackend{}
	a, _ := newApp(t, backend)
	a.Start(nil)
	require.NoError(t, a.SignIn(context.Background(), "yamada@example.com", "pw"))

	require.NoError(t, a.Playback.Play(domain.RawTrack{VideoID: "mpzI5bC4d-U", Title: "SPECIALZ", Artist: "King Gnu"}, false))

	assert.Eventually(t, func() bool { return backend.shares.Load() == 1 }, time.Second, 10*time.Millisecond)
	share := backend.lastShare.Load().(map[string]any)
	assert.Equal(t, "yamada_taro", share["sharedBy"])
	assert.Equal(t, "mpzI5bC4d-U", share["videoId"])

	// Replaying the same track does not share again.
	require.NoError(t, a.Playback.Play(domain.RawTrack{VideoID: "mpzI5bC4d-U", Title: "SPECIALZ"}, false))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), backend.shares.Load())
}

func TestAnonymousPlayDoesNotSuppressLaterShare(t *testing.T) {
	backend := &fakeBackend{}
	a, _ := newApp(t, backend)
	a.Start(nil)

	// Anonymous play: nothing is shared and nothing is remembered.
	require.NoError(t, a.Playback.Play(domain.RawTrack{VideoID: "mpzI5bC4d-U", Title: "SPECIALZ"}, false))
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, backend.shares.Load())

	require.NoError(t, a.SignIn(context.Background(), "yamada@example.com", "pw"))

	// First authenticated play of the same track must share.
	require.NoError(t, a.Playback.Play(domain.RawTrack{VideoID: "mpzI5bC4d-U", Title: "SPECIALZ"}, false))
	assert.Eventually(t, func() bool { return backend.shares.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestShareSuppressionDoesNotOutliveSession(t *testing.T) {
	backend := &fakeBackend{}
	a, _ := newApp(t, backend)
	a.Start(nil)

	require.NoError(t, a.SignIn(context.Background(), "yamada@example.com", "pw"))
	require.NoError(t, a.Playback.Play(domain.RawTrack{VideoID: "mpzI5bC4d-U", Title: "SPECIALZ"}, false))
	assert.Eventually(t, func() bool { return backend.shares.Load() == 1 }, time.Second, 10*time.Millisecond)

	a.Logout()
	require.NoError(t, a.SignIn(context.Background(), "yamada@example.com", "pw"))

	require.NoError(t, a.Playback.Play(domain.RawTrack{VideoID: "mpzI5bC4d-U", Title: "SPECIALZ"}, false))
	assert.Eventually(t, func() bool { return backend.shares.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestPlayDoesNotShareAnonymously(t *testing.T) {
	backend := &fakeBackend{}
	a, _ := newApp(t, backend)
	a.Start(nil)

	require.NoError(t, a.Playback.Play(domain.RawTrack{VideoID: "mpzI5bC4d-U", Title: "SPECIALZ"}, false))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, backend.shares.Load())
}

func TestSetTabIgnoresUnknown(t *testing.T) {
	a, _ := newApp(t, &fakeBackend{})

	a.SetTab(TabLibrary)
	assert.Equal(t, TabLibrary, a.ActiveTab())

	a.SetTab(Tab("settings"))
	assert.Equal(t, TabLibrary, a.ActiveTab())
}
