// Package state records what each visited page looked like and detects when
// its rendered content changes.
package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/law-makers/appcrawl/internal/clock"
	"github.com/law-makers/appcrawl/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Snapshotter is the part of a browser page the tracker reads.
type Snapshotter interface {
	Title(ctx context.Context) (string, error)
	Content(ctx context.Context) (string, error)
}

// ExcerptFunc turns a page's rendered HTML into a text excerpt.
type ExcerptFunc func(pageURL, html string) (string, error)

// Tracker stores one PageState per URL.
type Tracker struct {
	store   Store
	clock   clock.Clock
	excerpt ExcerptFunc
	logger  zerolog.Logger
}

type Option func(*Tracker)

func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithExcerpt enables excerpt extraction.
func WithExcerpt(fn ExcerptFunc) Option {
	return func(t *Tracker) { t.excerpt = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker creates a Tracker over store.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		clock:  clock.Real(),
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With().Str("component", "state").Logger()
	return t
}

// Digest is the hex SHA-256 of content.
func Digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// TrackState snapshots page and stores it under url, replacing any earlier state.
func (t *Tracker) TrackState(ctx context.Context, page Snapshotter, url string) (models.PageState, error) {
	title, err := page.Title(ctx)
	if err != nil {
		return models.PageState{}, fmt.Errorf("read title: %w", err)
	}
	content, err := page.Content(ctx)
	if err != nil {
		return models.PageState{}, fmt.Errorf("read content: %w", err)
	}

	st := models.PageState{
		URL:         url,
		Title:       title,
		CapturedAt:  t.clock.Now(),
		ContentHash: Digest(content),
	}
	if t.excerpt != nil {
		ex, err := t.excerpt(url, content)
		if err != nil {
			t.logger.Debug().Err(err).Str("url", url).Msg("Excerpt extraction failed")
		} else {
			st.Excerpt = ex
		}
	}

	if err := t.store.Put(ctx, st); err != nil {
		return models.PageState{}, err
	}
	t.logger.Debug().Str("url", url).Str("hash", st.ContentHash[:12]).Msg("Tracked page state")
	return st, nil
}

// HasVisited reports whether a state exists for url.
func (t *Tracker) HasVisited(ctx context.Context, url string) (bool, error) {
	_, ok, err := t.store.Get(ctx, url)
	return ok, err
}

// HasContentChanged reports whether page's current content differs from the
// stored state for url. A URL with no stored state counts as changed.
func (t *Tracker) HasContentChanged(ctx context.Context, page Snapshotter, url string) (bool, error) {
	content, err := page.Content(ctx)
	if err != nil {
		return false, fmt.Errorf("read content: %w", err)
	}
	prev, ok, err := t.store.Get(ctx, url)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return prev.ContentHash != Digest(content), nil
}

func (t *Tracker) GetState(ctx context.Context, url string) (models.PageState, bool, error) {
	return t.store.Get(ctx, url)
}

// GetAllStates returns every stored state in first-tracked order.
func (t *Tracker) GetAllStates(ctx context.Context) ([]models.PageState, error) {
	return t.store.All(ctx)
}
