package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoPlayableID = errors.New("track has no playable video id")

// MinVideoIDLength is the shortest video id accepted as playable. YouTube
// ids are 11 characters; anything shorter is a backend artifact.
const MinVideoIDLength = 8

const placeholderImageURL = "https://placehold.co/320x180?text=no+image"

// Track is the canonical track shape used internally regardless of the
// field names supplied by an endpoint.
type Track struct {
	VideoID  string `json:"videoId"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	ImageURL string `json:"imageUrl"`
}

// RawTrack accepts every field-name variant the backend endpoints use for
// the same data. It exists only at the API boundary; nothing downstream of
// Normalize sees it.
type RawTrack struct {
	VideoID           string `json:"videoId,omitempty"`
	ID                string `json:"id,omitempty"`
	TrackVideoID      string `json:"trackVideoId,omitempty"`
	TrackVideoIDSnake string `json:"track_video_id,omitempty"`

	Title           string `json:"title,omitempty"`
	TrackTitle      string `json:"trackTitle,omitempty"`
	TrackTitleSnake string `json:"track_title,omitempty"`

	Artist          string `json:"artist,omitempty"`
	ArtistName      string `json:"artistName,omitempty"`
	ArtistNameSnake string `json:"artist_name,omitempty"`

	Image    string `json:"image,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// playableID returns the first non-empty video id variant.
func (r RawTrack) playableID() string {
	for _, id := range []string{r.VideoID, r.ID, r.TrackVideoID, r.TrackVideoIDSnake} {
		if id != "" {
			return id
		}
	}
	return ""
}

// Normalize maps a heterogeneous track-like record into the canonical
// Track. It fails with ErrNoPlayableID when no video id variant is set.
func (r RawTrack) Normalize() (Track, error) {
	id := r.playableID()
	if id == "" {
		return Track{}, ErrNoPlayableID
	}

	title := firstNonEmpty(r.Title, r.TrackTitle, r.TrackTitleSnake)
	artist := firstNonEmpty(r.Artist, r.ArtistName, r.ArtistNameSnake)
	image := firstNonEmpty(r.ImageURL, r.Image)
	if image == "" {
		image = ThumbnailURL(id)
	}

	return Track{
		VideoID:  id,
		Title:    title,
		Artist:   artist,
		ImageURL: image,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ThumbnailURL derives the thumbnail image for a video id. Invalid ids
// fall back to a generic placeholder image.
func ThumbnailURL(videoID string) string {
	if len(videoID) < MinVideoIDLength {
		return placeholderImageURL
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", videoID)
}

// SharedTrack is a track another user is currently sharing, annotated with
// its (real or synthesized) location.
type SharedTrack struct {
	Track
	SharedBy string  `json:"sharedBy"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Distance string  `json:"distance,omitempty"`
}

// Playlist is the summary shape held in the library list.
type Playlist struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SongsCount int    `json:"songsCount"`
}

// PlaylistDetail is the expanded playlist with its tracks.
type PlaylistDetail struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Songs []Track `json:"songs"`
}

// SenderMe marks a chat message written by the viewer.
const SenderMe = "me"

// ChatMessage is a single entry of a client-local chat transcript.
type ChatMessage struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	SentAt string `json:"sentAt"`
}

// FormatMessageTime renders the local wall-clock time shown next to a chat
// message.
func FormatMessageTime(t time.Time) string {
	return t.Format("15:04")
}
