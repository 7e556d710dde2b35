// Package playlists manages the viewer's playlists against the backend,
// including the transient placeholder shown before the first sync.
package playlists

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jaki95/music-radar/internal/api"
	"github.com/jaki95/music-radar/internal/domain"
)

// PlaceholderID identifies the client-only playlist shown before the
// backend-confirmed default playlist exists. Operations against it that
// would need a real backend id are rejected with ErrNotSynced.
const PlaceholderID = "default"

var (
	ErrNotSynced  = errors.New("playlist not yet synced with the server")
	ErrEmptyTitle = errors.New("playlist title is empty")
)

const (
	defaultTitle       = "お気に入り"
	defaultDescription = "自動作成されたプレイリスト"
)

func placeholder() domain.Playlist {
	return domain.Playlist{ID: PlaceholderID, Title: defaultTitle, SongsCount: 0}
}

type Manager struct {
	client *api.Client

	mu    sync.RWMutex
	lists []domain.Playlist
}

func NewManager(client *api.Client) *Manager {
	return &Manager{client: client, lists: []domain.Playlist{placeholder()}}
}

// Reset drops local playlist state back to the single placeholder entry.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.lists = []domain.Playlist{placeholder()}
	m.mu.Unlock()
}

// Playlists returns a copy of the local playlist summaries.
func (m *Manager) Playlists() []domain.Playlist {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Playlist, len(m.lists))
	copy(out, m.lists)
	return out
}

// Refresh fetches the viewer's playlists after authentication. When the
// backend reports none, the default playlist is created server-side and
// becomes the sole entry. The result replaces local state.
func (m *Manager) Refresh(ctx context.Context) error {
	lists, err := m.client.ListPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("playlist fetch failed: %w", err)
	}

	if len(lists) == 0 {
		created, err := m.client.CreatePlaylist(ctx, defaultTitle, defaultDescription)
		if err != nil {
			return fmt.Errorf("default playlist creation failed: %w", err)
		}
		lists = []domain.Playlist{created}
		slog.Info("default playlist created", "id", created.ID)
	}

	m.mu.Lock()
	m.lists = lists
	m.mu.Unlock()
	return nil
}

// Create makes a new playlist and appends the backend's summary locally.
func (m *Manager) Create(ctx context.Context, title string) (domain.Playlist, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Playlist{}, ErrEmptyTitle
	}

	created, err := m.client.CreatePlaylist(ctx, title, "")
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("playlist creation failed: %w", err)
	}

	m.mu.Lock()
	m.lists = append(m.lists, created)
	m.mu.Unlock()
	return created, nil
}

// Open fetches a playlist's detail. The placeholder is handled locally and
// shown empty without a backend call.
func (m *Manager) Open(ctx context.Context, playlist domain.Playlist) (domain.PlaylistDetail, error) {
	if playlist.ID == PlaceholderID {
		return domain.PlaylistDetail{
			ID:    PlaceholderID,
			Title: playlist.Title,
			Songs: []domain.Track{},
		}, nil
	}
	return m.client.PlaylistDetail(ctx, playlist.ID)
}

// AddTrack posts a track to a playlist and bumps the local count
// optimistically. Adding to the placeholder is rejected before any network
// call.
func (m *Manager) AddTrack(ctx context.Context, playlistID string, track domain.Track) error {
	if playlistID == PlaceholderID {
		return ErrNotSynced
	}

	position := m.songsCount(playlistID)
	if err := m.client.AddPlaylistTrack(ctx, playlistID, track, position); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}

	m.adjustCount(playlistID, 1)
	return nil
}

// RemoveTrack deletes a track from a playlist and decrements the local
// count, floored at zero.
func (m *Manager) RemoveTrack(ctx context.Context, playlistID, videoID string) error {
	if err := m.client.RemovePlaylistTrack(ctx, playlistID, videoID); err != nil {
		return fmt.Errorf("failed to remove track: %w", err)
	}

	m.adjustCount(playlistID, -1)
	return nil
}

// Delete removes a playlist on the backend and locally.
func (m *Manager) Delete(ctx context.Context, playlistID string) error {
	if playlistID == PlaceholderID {
		return ErrNotSynced
	}

	if err := m.client.DeletePlaylist(ctx, playlistID); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	m.mu.Lock()
	for i, p := range m.lists {
		if p.ID == playlistID {
			m.lists = append(m.lists[:i], m.lists[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *Manager) songsCount(playlistID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.lists {
		if p.ID == playlistID {
			return p.SongsCount
		}
	}
	return 0
}

func (m *Manager) adjustCount(playlistID string, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lists {
		if m.lists[i].ID == playlistID {
			m.lists[i].SongsCount += delta
			if m.lists[i].SongsCount < 0 {
				m.lists[i].SongsCount = 0
			}
			return
		}
	}
}
