// Package app owns the whole client state: one explicit struct wiring the
// session, catalog, presence, playback, social and playlist components
// together with the view router. Handlers receive it by reference; there
// are no ambient singletons.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jaki95/music-radar/config"
	"github.com/jaki95/music-radar/internal/api"
	"github.com/jaki95/music-radar/internal/catalog"
	"github.com/jaki95/music-radar/internal/domain"
	"github.com/jaki95/music-radar/internal/playback"
	"github.com/jaki95/music-radar/internal/playlists"
	"github.com/jaki95/music-radar/internal/presence"
	"github.com/jaki95/music-radar/internal/session"
	"github.com/jaki95/music-radar/internal/social"
)

// Tab selects the active panel.
type Tab string

const (
	TabHome     Tab = "home"
	TabNearby   Tab = "nearby"
	TabMessages Tab = "messages"
	TabLibrary  Tab = "library"
)

// Modal selects the open overlay, if any.
type Modal string

const (
	ModalNone          Modal = "none"
	ModalProfile       Modal = "profile"
	ModalChat          Modal = "chat"
	ModalAddToPlaylist Modal = "addToPlaylist"
)

func validTab(tab Tab) bool {
	switch tab {
	case TabHome, TabNearby, TabMessages, TabLibrary:
		return true
	}
	return false
}

type App struct {
	cfg    *config.Config
	client *api.Client

	Session   *session.Manager
	Catalog   *catalog.Fetcher
	Presence  *presence.Poller
	Playback  *playback.Controller
	Social    *social.Manager
	Playlists *playlists.Manager

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	tab    Tab
	modal  Modal
	charts []domain.Track
}

func New(cfg *config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	client := api.New(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout())
	sessionManager := session.NewManager(client)

	a := &App{
		cfg:     cfg,
		client:  client,
		Session: sessionManager,
		Catalog: catalog.NewFetcher(client),
		ctx:     ctx,
		cancel:  cancel,
		tab:     TabHome,
		modal:   ModalNone,
	}
	a.Presence = presence.NewPoller(
		client,
		cfg.Timers.NearbyPoll(),
		cfg.Location.FallbackLat,
		cfg.Location.FallbackLng,
		sessionManager.LoggedIn,
	)
	a.Playback = playback.NewController(cfg.Timers.PlaybackTick(), a.shareTrack)
	a.Social = social.NewManager(client.PublicTracks, cfg.Timers.ChatReply())
	a.Playlists = playlists.NewManager(client)
	return a
}

// Start performs the startup work: the one-time charts fetch and the
// one-shot geolocation read. A nil source uses the fallback coordinate.
func (a *App) Start(source presence.LocationSource) {
	charts := a.Catalog.LoadCharts(a.ctx)
	a.mu.Lock()
	a.charts = charts
	a.mu.Unlock()

	a.Presence.ResolveLocation(source)
}

// Charts returns the popular tracks loaded at startup.
func (a *App) Charts() []domain.Track {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]domain.Track, len(a.charts))
	copy(out, a.charts)
	return out
}

// SignIn authenticates and, on success, syncs playlists and starts the
// nearby polling loop. Playlist and polling failures are logged, not
// surfaced; the login itself succeeded.
func (a *App) SignIn(ctx context.Context, email, password string) error {
	if err := a.Session.SignIn(ctx, email, password); err != nil {
		return err
	}
	a.afterLogin(ctx)
	return nil
}

// SignUp creates an account and brings the session up the same way.
func (a *App) SignUp(ctx context.Context, email, password, displayName string) error {
	if err := a.Session.SignUp(ctx, email, password, displayName); err != nil {
		return err
	}
	a.afterLogin(ctx)
	return nil
}

func (a *App) afterLogin(ctx context.Context) {
	if err := a.Playlists.Refresh(ctx); err != nil {
		slog.Warn("playlist sync after login failed", "error", err)
	}
	if err := a.Presence.Start(a.ctx); err != nil {
		slog.Warn("nearby polling not started", "error", err)
	}
}

// Logout tears the session down: polling stops, session fields clear, the
// active tab resets to home and playlists fall back to the placeholder.
func (a *App) Logout() {
	a.Presence.Stop()
	a.Session.Logout()
	a.Playlists.Reset()
	a.Playback.ClearShareHistory()

	a.mu.Lock()
	a.tab = TabHome
	a.modal = ModalNone
	a.mu.Unlock()
}

// shareTrack is the playback controller's share hook. Anonymous plays
// decline, reporting false so the track stays eligible for the first
// authenticated play; the publish itself is fire-and-forget.
func (a *App) shareTrack(track domain.Track) bool {
	if !a.Session.LoggedIn() {
		return false
	}
	lat, lng, _ := a.Presence.Location()
	share := api.ShareRequest{
		Title:    track.Title,
		Artist:   track.Artist,
		SharedBy: a.Session.Username(),
		VideoID:  track.VideoID,
		Lat:      lat,
		Lng:      lng,
	}
	go func() {
		if err := a.client.ShareSong(a.ctx, share); err != nil {
			slog.Warn("share failed", "videoId", track.VideoID, "error", err)
		}
	}()
	return true
}

// OpenProfile shows a sharer's profile card. The public-playlist fetch
// runs against the app lifetime, not the caller's context: a profile
// opened from a short-lived HTTP request still gets its augmentation.
func (a *App) OpenProfile(rec domain.SharedTrack) {
	a.Social.OpenProfile(a.ctx, rec)
	a.OpenModal(ModalProfile)
}

// ActiveTab returns the selected panel.
func (a *App) ActiveTab() Tab {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tab
}

// SetTab switches the active panel; unknown tabs are ignored.
func (a *App) SetTab(tab Tab) {
	if !validTab(tab) {
		slog.Debug("ignoring unknown tab", "tab", tab)
		return
	}
	a.mu.Lock()
	a.tab = tab
	a.mu.Unlock()
}

// ActiveModal returns the open overlay.
func (a *App) ActiveModal() Modal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.modal
}

// OpenModal shows an overlay; CloseModal dismisses it.
func (a *App) OpenModal(modal Modal) {
	a.mu.Lock()
	a.modal = modal
	a.mu.Unlock()
}

func (a *App) CloseModal() {
	a.mu.Lock()
	a.modal = ModalNone
	a.mu.Unlock()
	a.Social.CloseProfile()
}

// Close tears the app down: polling and clocks stop, in-flight requests
// are cancelled.
func (a *App) Close() {
	a.Presence.Stop()
	a.Playback.Close()
	a.cancel()
}
