// Package social holds the followed-users set, the profile view and the
// client-local chat simulation. Chat never touches the network: replies
// are canned and generated on a delay.
package social

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaki95/music-radar/internal/domain"
)

// Profile is the state behind the profile modal: immediate fields from the
// shared record, later augmented with the sharer's public tracks.
type Profile struct {
	Username     string         `json:"username"`
	Track        domain.Track   `json:"track"`
	Distance     string         `json:"distance"`
	PublicTracks []domain.Track `json:"publicTracks"`
}

// PublicTracksFunc fetches a user's public playlist entries.
type PublicTracksFunc func(ctx context.Context, username string) ([]domain.Track, error)

// MessageListener observes transcript appends, including delayed replies.
type MessageListener func(user string, msg domain.ChatMessage)

type Manager struct {
	publicTracks PublicTracksFunc
	replyDelay   time.Duration
	now          func() time.Time

	mu          sync.RWMutex
	favorites   map[string]bool
	transcripts map[string][]domain.ChatMessage
	profile     *Profile
	listeners   []MessageListener
}

func NewManager(publicTracks PublicTracksFunc, replyDelay time.Duration) *Manager {
	return &Manager{
		publicTracks: publicTracks,
		replyDelay:   replyDelay,
		now:          time.Now,
		favorites:    make(map[string]bool),
		transcripts:  make(map[string][]domain.ChatMessage),
	}
}

// AddListener registers a transcript listener.
func (m *Manager) AddListener(listener MessageListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

// OpenProfile shows a profile immediately from the shared record, then
// augments it with the sharer's public tracks in the background. A failed
// fetch leaves the public list empty, silently.
func (m *Manager) OpenProfile(ctx context.Context, rec domain.SharedTrack) {
	m.mu.Lock()
	m.profile = &Profile{
		Username:     rec.SharedBy,
		Track:        rec.Track,
		Distance:     rec.Distance,
		PublicTracks: []domain.Track{},
	}
	m.mu.Unlock()

	if m.publicTracks == nil {
		return
	}
	go func() {
		tracks, err := m.publicTracks(ctx, rec.SharedBy)
		if err != nil {
			slog.Debug("public tracks fetch failed", "username", rec.SharedBy, "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}

		m.mu.Lock()
		// The user may have navigated to another profile meanwhile; a
		// late response must not overwrite it.
		if m.profile != nil && m.profile.Username == rec.SharedBy {
			m.profile.PublicTracks = tracks
		}
		m.mu.Unlock()
	}()
}

// Profile returns a copy of the open profile, or nil.
func (m *Manager) Profile() *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

// CloseProfile clears the profile view.
func (m *Manager) CloseProfile() {
	m.mu.Lock()
	m.profile = nil
	m.mu.Unlock()
}

// ToggleFollow adds or removes a user from the favorites set and reports
// the new state. Following lazily creates an empty transcript; an existing
// transcript is never touched.
func (m *Manager) ToggleFollow(user string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.favorites[user] {
		delete(m.favorites, user)
		return false
	}
	m.favorites[user] = true
	if _, ok := m.transcripts[user]; !ok {
		m.transcripts[user] = []domain.ChatMessage{}
	}
	return true
}

func (m *Manager) IsFollowing(user string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.favorites[user]
}

// Favorites returns the followed usernames, sorted.
func (m *Manager) Favorites() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]string, 0, len(m.favorites))
	for user := range m.favorites {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// Transcript returns a copy of a user's chat transcript.
func (m *Manager) Transcript(user string) []domain.ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	transcript := m.transcripts[user]
	out := make([]domain.ChatMessage, len(transcript))
	copy(out, transcript)
	return out
}

// SendMessage appends the viewer's message to the transcript and schedules
// the canned reply. The reply timer is not cancellable: the reply lands in
// the transcript even if the chat view has moved away by then.
func (m *Manager) SendMessage(user, text string) domain.ChatMessage {
	msg := domain.ChatMessage{
		ID:     uuid.NewString(),
		Sender: domain.SenderMe,
		Text:   text,
		SentAt: domain.FormatMessageTime(m.now()),
	}
	m.append(user, msg)

	time.AfterFunc(m.replyDelay, func() {
		reply := domain.ChatMessage{
			ID:     uuid.NewString(),
			Sender: user,
			Text:   replyFor(text),
			SentAt: domain.FormatMessageTime(m.now()),
		}
		m.append(user, reply)
	})

	return msg
}

func (m *Manager) append(user string, msg domain.ChatMessage) {
	m.mu.Lock()
	m.transcripts[user] = append(m.transcripts[user], msg)
	listeners := m.listeners
	m.mu.Unlock()

	for _, listener := range listeners {
		listener(user, msg)
	}
}

// replyFor picks the canned reply by simple substring match on the
// original message.
func replyFor(text string) string {
	lower := strings.ToLower(text)
	for _, greeting := range []string{"こんにちは", "こんばんは", "hello", "hi"} {
		if strings.Contains(lower, greeting) {
			return "こんにちは！この曲いいですよね🎵"
		}
	}
	return "いいね！ありがとう😊"
}
