package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jaki95/music-radar/internal/domain"
)

// AuthResponse is the session payload returned by signup and signin.
type AuthResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Session  struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"session"`
}

// NearbySong is one entry of the nearby feed as the backend returns it.
// Lat and Lng are pointers so a missing coordinate is distinguishable from
// the equator.
type NearbySong struct {
	domain.RawTrack
	SharedBy string   `json:"sharedBy"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

// ShareRequest publishes the viewer's currently-playing track.
type ShareRequest struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	SharedBy string  `json:"sharedBy"`
	VideoID  string  `json:"videoId"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

type createPlaylistRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type addTrackRequest struct {
	TrackVideoID string `json:"track_video_id"`
	TrackTitle   string `json:"track_title"`
	ArtistName   string `json:"artist_name"`
	Position     int    `json:"position"`
}

type playlistDetailResponse struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Songs []domain.RawTrack `json:"songs"`
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password, "username": displayName}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signin", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Charts fetches the popular-tracks list shown on the home tab.
func (c *Client) Charts(ctx context.Context) ([]domain.Track, error) {
	var raw []domain.RawTrack
	if err := c.do(ctx, http.MethodGet, "/charts", nil, nil, &raw); err != nil {
		return nil, err
	}
	return normalizeAll(raw), nil
}

// Search fetches tracks matching the query.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Track, error) {
	q := url.Values{}
	q.Set("q", query)
	var raw []domain.RawTrack
	if err := c.do(ctx, http.MethodGet, "/search", q, nil, &raw); err != nil {
		return nil, err
	}
	return normalizeAll(raw), nil
}

// NearbySongs fetches the currently-shared tracks of other users.
func (c *Client) NearbySongs(ctx context.Context) ([]NearbySong, error) {
	var songs []NearbySong
	if err := c.do(ctx, http.MethodGet, "/songs", nil, nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// ShareSong publishes a share record to the nearby feed.
func (c *Client) ShareSong(ctx context.Context, share ShareRequest) error {
	return c.do(ctx, http.MethodPost, "/songs", nil, share, nil)
}

// PublicTracks fetches a user's public playlist entries.
func (c *Client) PublicTracks(ctx context.Context, username string) ([]domain.Track, error) {
	var raw []domain.RawTrack
	path := fmt.Sprintf("/users/%s/public-tracks", url.PathEscape(username))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	return normalizeAll(raw), nil
}

func (c *Client) ListPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	if err := c.do(ctx, http.MethodGet, "/playlists", nil, nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

func (c *Client) CreatePlaylist(ctx context.Context, title, description string) (domain.Playlist, error) {
	var created domain.Playlist
	body := createPlaylistRequest{Title: title, Description: description}
	if err := c.do(ctx, http.MethodPost, "/playlists", nil, body, &created); err != nil {
		return domain.Playlist{}, err
	}
	return created, nil
}

func (c *Client) PlaylistDetail(ctx context.Context, id string) (domain.PlaylistDetail, error) {
	var resp playlistDetailResponse
	path := "/playlists/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return domain.PlaylistDetail{}, err
	}
	return domain.PlaylistDetail{
		ID:    resp.ID,
		Title: resp.Title,
		Songs: normalizeAll(resp.Songs),
	}, nil
}

func (c *Client) AddPlaylistTrack(ctx context.Context, playlistID string, track domain.Track, position int) error {
	body := addTrackRequest{
		TrackVideoID: track.VideoID,
		TrackTitle:   track.Title,
		ArtistName:   track.Artist,
		Position:     position,
	}
	path := fmt.Sprintf("/playlists/%s/songs", url.PathEscape(playlistID))
	return c.do(ctx, http.MethodPost, path, nil, body, nil)
}

func (c *Client) RemovePlaylistTrack(ctx context.Context, playlistID, videoID string) error {
	path := fmt.Sprintf("/playlists/%s/songs/%s", url.PathEscape(playlistID), url.PathEscape(videoID))
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) DeletePlaylist(ctx context.Context, playlistID string) error {
	return c.do(ctx, http.MethodDelete, "/playlists/"+url.PathEscape(playlistID), nil, nil, nil)
}

// normalizeAll maps raw records into canonical tracks, dropping records
// without a playable id.
func normalizeAll(raw []domain.RawTrack) []domain.Track {
	tracks := make([]domain.Track, 0, len(raw))
	for _, r := range raw {
		track, err := r.Normalize()
		if err != nil {
			slog.Debug("dropping track without playable id", "title", r.Title)
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks
}
