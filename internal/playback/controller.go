// Package playback tracks the currently playing track and keeps its
// elapsed time in sync with an embedded player widget.
package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jaki95/music-radar/internal/domain"
)

// ErrNoPlayableTrack mirrors domain.ErrNoPlayableID for callers of Play.
var ErrNoPlayableTrack = domain.ErrNoPlayableID

// PlayerHandle is the live control surface of an embedded player widget.
// Handles may come up before their controls do: every reader returns an ok
// flag and every method on an unready handle is a benign no-op.
type PlayerHandle interface {
	Ready() bool
	CurrentTime() (float64, bool)
	Duration() (float64, bool)
	SeekTo(seconds float64)
}

// ShareFunc publishes a share record for the given track and reports
// whether it did. An implementation that declines (no session, say) returns
// false, leaving the track eligible for the next play. Publication itself
// is fire-and-forget; errors are the implementation's to log.
type ShareFunc func(track domain.Track) bool

// State is a read-only snapshot of the controller.
type State struct {
	Track    *domain.Track `json:"track"`
	Playing  bool          `json:"playing"`
	Expanded bool          `json:"expanded"`
	Elapsed  float64       `json:"elapsed"`
	Duration float64       `json:"duration"`
}

type Controller struct {
	tick  time.Duration
	share ShareFunc

	mu           sync.RWMutex
	current      *domain.Track
	playing      bool
	expanded     bool
	elapsed      float64
	duration     float64
	handle       PlayerHandle
	clockCancel  context.CancelFunc
	clockDone    chan struct{}
	lastSharedID string
	listeners    []func(State)
}

func NewController(tick time.Duration, share ShareFunc) *Controller {
	return &Controller{tick: tick, share: share}
}

// AddListener registers a state listener, invoked on every clock tick and
// state change.
func (c *Controller) AddListener(listener func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// Play normalizes a track-like record and makes it current: elapsed resets
// to zero, duration becomes unknown, playback is marked active and any
// previous player handle is discarded so the widget reinitializes. A
// record with no playable id is rejected without touching state.
func (c *Controller) Play(raw domain.RawTrack, expand bool) error {
	track, err := raw.Normalize()
	if err != nil {
		return ErrNoPlayableTrack
	}

	c.stopClock()

	c.mu.Lock()
	c.current = &track
	c.elapsed = 0
	c.duration = 0
	c.playing = true
	if expand {
		c.expanded = true
	}
	// The previous handle controls a torn-down widget; never reuse it.
	c.handle = nil

	attemptShare := c.share != nil && c.lastSharedID != track.VideoID
	c.mu.Unlock()

	slog.Info("now playing", "videoId", track.VideoID, "title", track.Title)
	if attemptShare && c.share(track) {
		c.mu.Lock()
		c.lastSharedID = track.VideoID
		c.mu.Unlock()
	}
	c.notify()
	return nil
}

// ClearShareHistory forgets the last shared track, making every track
// eligible again. Sessions must not inherit each other's suppression.
func (c *Controller) ClearShareHistory() {
	c.mu.Lock()
	c.lastSharedID = ""
	c.mu.Unlock()
}

// AttachHandle replaces the player handle once the embed widget reports
// ready. The elapsed clock starts if playback is active.
func (c *Controller) AttachHandle(handle PlayerHandle) {
	c.stopClock()

	c.mu.Lock()
	c.handle = handle
	playing := c.playing
	c.mu.Unlock()

	if handle != nil && playing {
		c.startClock()
	}
}

// Pause stops playback and the elapsed clock without resetting the
// already-recorded elapsed time.
func (c *Controller) Pause() {
	c.mu.Lock()
	c.playing = false
	c.mu.Unlock()
	c.stopClock()
	c.notify()
}

// Resume restarts playback; the clock restarts only if a handle exists.
func (c *Controller) Resume() {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return
	}
	c.playing = true
	handle := c.handle
	c.mu.Unlock()

	if handle != nil {
		// A repeated resume must replace the running clock, not stack a
		// second one on top of it.
		c.stopClock()
		c.startClock()
	}
	c.notify()
}

// Seek updates the displayed elapsed time optimistically and instructs the
// handle, whether or not it is ready.
func (c *Controller) Seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	c.mu.Lock()
	c.elapsed = seconds
	handle := c.handle
	c.mu.Unlock()

	if handle != nil {
		handle.SeekTo(seconds)
	}
	c.notify()
}

// Skip jumps relative to the handle's current time. It only works when the
// handle exposes a current-time reader.
func (c *Controller) Skip(delta float64) {
	c.mu.RLock()
	handle := c.handle
	c.mu.RUnlock()

	if handle == nil {
		return
	}
	current, ok := handle.CurrentTime()
	if !ok {
		return
	}
	c.Seek(current + delta)
}

// SetExpanded toggles between the full and mini views. Visibility only:
// the widget stays mounted, so playback is never interrupted.
func (c *Controller) SetExpanded(expanded bool) {
	c.mu.Lock()
	c.expanded = expanded
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns the current playback state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Track:    c.current,
		Playing:  c.playing,
		Expanded: c.expanded,
		Elapsed:  c.elapsed,
		Duration: c.duration,
	}
}

// Close stops the elapsed clock.
func (c *Controller) Close() {
	c.stopClock()
}

func (c *Controller) startClock() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.clockCancel = cancel
	c.clockDone = done
	c.mu.Unlock()

	go c.runClock(ctx, done)
}

func (c *Controller) stopClock() {
	c.mu.Lock()
	cancel := c.clockCancel
	done := c.clockDone
	c.clockCancel = nil
	c.clockDone = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// runClock polls the handle once per tick while playback is active. Reads
// tolerate a handle whose controls are not up yet.
func (c *Controller) runClock(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			handle := c.handle
			playing := c.playing
			c.mu.RUnlock()

			if handle == nil || !playing {
				return
			}
			if !handle.Ready() {
				continue
			}

			c.mu.Lock()
			if seconds, ok := handle.CurrentTime(); ok {
				c.elapsed = seconds
			}
			if c.duration == 0 {
				if seconds, ok := handle.Duration(); ok {
					c.duration = seconds
				}
			}
			c.mu.Unlock()
			c.notify()
		}
	}
}

func (c *Controller) notify() {
	c.mu.RLock()
	listeners := c.listeners
	c.mu.RUnlock()

	state := c.Snapshot()
	for _, listener := range listeners {
		listener(state)
	}
}
