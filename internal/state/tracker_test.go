package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/appcrawl/internal/browser/browsertest"
	"github.com/law-makers/appcrawl/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// stores runs fn against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "state", "crawl.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestTrackStateStoresDigest(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tr := NewTracker(s, WithClock(clock.NewFake(start)))

		page := &browsertest.Static{TitleText: "Home", HTML: "<html>hello</html>"}
		st, err := tr.TrackState(ctx, page, "https://ex.com")
		require.NoError(t, err)

		assert.Equal(t, "https://ex.com", st.URL)
		assert.Equal(t, "Home", st.Title)
		assert.Equal(t, Digest("<html>hello</html>"), st.ContentHash)
		assert.Len(t, st.ContentHash, 64)
		assert.True(t, st.CapturedAt.Equal(start))

		got, ok, err := tr.GetState(ctx, "https://ex.com")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, st.ContentHash, got.ContentHash)
		assert.True(t, got.CapturedAt.Equal(start))
	})
}

func TestHasContentChanged(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tr := NewTracker(s)
		page := &browsertest.Static{TitleText: "A", HTML: "v1"}

		changed, err := tr.HasContentChanged(ctx, page, "https://ex.com/a")
		require.NoError(t, err)
		assert.True(t, changed, "unknown URL counts as changed")

		_, err = tr.TrackState(ctx, page, "https://ex.com/a")
		require.NoError(t, err)

		changed, err = tr.HasContentChanged(ctx, page, "https://ex.com/a")
		require.NoError(t, err)
		assert.False(t, changed, "identical content")

		page.HTML = "v2"
		changed, err = tr.HasContentChanged(ctx, page, "https://ex.com/a")
		require.NoError(t, err)
		assert.True(t, changed)
	})
}

func TestOverwriteKeepsFirstTrackedOrder(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		fc := clock.NewFake(start)
		tr := NewTracker(s, WithClock(fc))

		for _, u := range []string{"https://ex.com/a", "https://ex.com/b", "https://ex.com/c"} {
			_, err := tr.TrackState(ctx, &browsertest.Static{TitleText: u, HTML: u}, u)
			require.NoError(t, err)
		}
		fc.Advance(time.Minute)
		_, err := tr.TrackState(ctx, &browsertest.Static{TitleText: "A2", HTML: "new"}, "https://ex.com/a")
		require.NoError(t, err)

		all, err := tr.GetAllStates(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "https://ex.com/a", all[0].URL)
		assert.Equal(t, "A2", all[0].Title)
		assert.True(t, all[0].CapturedAt.Equal(start.Add(time.Minute)))
		assert.Equal(t, "https://ex.com/c", all[2].URL)

		visited, err := tr.HasVisited(ctx, "https://ex.com/b")
		require.NoError(t, err)
		assert.True(t, visited)
		visited, err = tr.HasVisited(ctx, "https://ex.com/z")
		require.NoError(t, err)
		assert.False(t, visited)
	})
}

func TestExcerptIsOptional(t *testing.T) {
	ctx := context.Background()
	page := &browsertest.Static{TitleText: "T", HTML: "<h1>Hi</h1>"}

	tr := NewTracker(NewMemoryStore(), WithExcerpt(func(pageURL, html string) (string, error) {
		return "# Hi", nil
	}))
	st, err := tr.TrackState(ctx, page, "https://ex.com")
	require.NoError(t, err)
	assert.Equal(t, "# Hi", st.Excerpt)

	failing := NewTracker(NewMemoryStore(), WithExcerpt(func(string, string) (string, error) {
		return "", errors.New("bad html")
	}))
	st, err = failing.TrackState(ctx, page, "https://ex.com")
	require.NoError(t, err, "excerpt failures do not fail tracking")
	assert.Empty(t, st.Excerpt)
}

func TestTrackStatePropagatesPageErrors(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	_, err := tr.TrackState(context.Background(), &browsertest.Static{Err: errors.New("detached")}, "https://ex.com")
	assert.Error(t, err)

	states, err := tr.GetAllStates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = NewTracker(s).TrackState(ctx, &browsertest.Static{TitleText: "A", HTML: "same"}, "https://ex.com/a")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	changed, err := NewTracker(reopened).HasContentChanged(ctx, &browsertest.Static{HTML: "same"}, "https://ex.com/a")
	require.NoError(t, err)
	assert.False(t, changed)
}
