// Package presence maintains the nearby feed: a periodically refreshed
// view of the tracks other users are currently sharing, one record per
// sharer, each with a real or synthesized coordinate.
package presence

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jaki95/music-radar/internal/api"
	"github.com/jaki95/music-radar/internal/domain"
	"github.com/jaki95/music-radar/internal/geo"
)

var (
	ErrLocationNotResolved = errors.New("location not resolved yet")
	ErrNotLoggedIn         = errors.New("not logged in")
)

// LocationSource is a one-shot geolocation read.
type LocationSource func() (lat, lng float64, err error)

// Listener receives the feed snapshot published after each poll cycle.
type Listener func([]domain.SharedTrack)

type Poller struct {
	client   *api.Client
	interval time.Duration
	loggedIn func() bool

	fallbackLat float64
	fallbackLng float64

	mu             sync.RWMutex
	lat, lng       float64
	locationLoaded bool
	nearby         []domain.SharedTrack
	cancel         context.CancelFunc
	done           chan struct{}
	listeners      []Listener
}

func NewPoller(client *api.Client, interval time.Duration, fallbackLat, fallbackLng float64, loggedIn func() bool) *Poller {
	return &Poller{
		client:      client,
		interval:    interval,
		loggedIn:    loggedIn,
		fallbackLat: fallbackLat,
		fallbackLng: fallbackLng,
	}
}

// ResolveLocation performs the one-shot geolocation read. Failure still
// marks the location loaded, using the fallback coordinate, so polling can
// proceed.
func (p *Poller) ResolveLocation(source LocationSource) {
	lat, lng := p.fallbackLat, p.fallbackLng
	if source != nil {
		if gotLat, gotLng, err := source(); err == nil {
			lat, lng = gotLat, gotLng
		} else {
			slog.Warn("geolocation failed, using fallback coordinate", "error", err)
		}
	}

	p.mu.Lock()
	p.lat = lat
	p.lng = lng
	p.locationLoaded = true
	p.mu.Unlock()
	slog.Debug("location resolved", "lat", lat, "lng", lng)
}

// Location returns the viewer coordinate and whether it has been resolved.
func (p *Poller) Location() (lat, lng float64, loaded bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lat, p.lng, p.locationLoaded
}

// AddListener registers a snapshot listener. Listeners are invoked from
// the polling goroutine after each cycle.
func (p *Poller) AddListener(listener Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, listener)
}

// Start launches the polling loop. It requires a resolved location and an
// authenticated session; the first cycle runs immediately. Starting an
// already-running poller restarts it.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if !p.locationLoaded {
		p.mu.Unlock()
		return ErrLocationNotResolved
	}
	if p.loggedIn != nil && !p.loggedIn() {
		p.mu.Unlock()
		return ErrNotLoggedIn
	}
	if p.cancel != nil {
		p.cancel()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.run(pollCtx, done)
	return nil
}

// Stop cancels the polling task and waits for the loop to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	slog.Info("nearby polling started", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("nearby polling stopped")
			return
		case <-ticker.C:
			if p.loggedIn != nil && !p.loggedIn() {
				slog.Info("nearby polling stopped", "reason", "logged out")
				return
			}
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	songs, err := p.client.NearbySongs(ctx)
	if err != nil {
		// Non-critical read: keep the previous snapshot.
		slog.Warn("nearby fetch failed", "error", err)
		return
	}
	if ctx.Err() != nil {
		// Cancelled mid-flight; a stale response must not land.
		return
	}

	p.mu.Lock()
	p.nearby = p.reduce(songs)
	snapshot := p.nearby
	listeners := p.listeners
	p.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

// reduce turns a raw feed response into the deduplicated snapshot: records
// without a usable video id are dropped, the latest record per sharer
// wins, and missing coordinates are synthesized from the sharer name.
// Callers hold p.mu.
func (p *Poller) reduce(songs []api.NearbySong) []domain.SharedTrack {
	bySharer := make(map[string]domain.SharedTrack, len(songs))
	for _, song := range songs {
		track, err := song.RawTrack.Normalize()
		if err != nil || len(track.VideoID) < domain.MinVideoIDLength {
			slog.Debug("dropping nearby record", "sharedBy", song.SharedBy)
			continue
		}

		rec := domain.SharedTrack{Track: track, SharedBy: song.SharedBy}
		if song.Lat != nil && song.Lng != nil {
			rec.Lat, rec.Lng = *song.Lat, *song.Lng
		} else {
			rec.Lat, rec.Lng = geo.OffsetCoordinate(p.lat, p.lng, song.SharedBy)
		}
		rec.Distance = geo.FormatDistance(geo.ApproxDistanceKm(p.lat, p.lng, rec.Lat, rec.Lng))

		bySharer[song.SharedBy] = rec
	}

	result := make([]domain.SharedTrack, 0, len(bySharer))
	for _, rec := range bySharer {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SharedBy < result[j].SharedBy
	})
	return result
}

// Nearby returns the current feed snapshot.
func (p *Poller) Nearby() []domain.SharedTrack {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nearby
}
