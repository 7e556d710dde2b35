// Package catalog retrieves popular tracks and search results.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jaki95/music-radar/internal/api"
	"github.com/jaki95/music-radar/internal/domain"
)

// ErrEmptyQuery rejects blank searches before any network call.
var ErrEmptyQuery = errors.New("search query is empty")

type Fetcher struct {
	client *api.Client
}

func NewFetcher(client *api.Client) *Fetcher {
	return &Fetcher{client: client}
}

// LoadCharts fetches the popular-tracks list. A failed fetch degrades to
// an empty list; the home tab simply shows nothing.
func (f *Fetcher) LoadCharts(ctx context.Context) []domain.Track {
	tracks, err := f.client.Charts(ctx)
	if err != nil {
		slog.Warn("charts fetch failed", "error", err)
		return []domain.Track{}
	}
	return tracks
}

// Search fetches tracks matching the query. Unlike charts, failures are
// returned so the caller can surface them.
func (f *Fetcher) Search(ctx context.Context, query string) ([]domain.Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	return f.client.Search(ctx, query)
}
