package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vozant-ai/valuation-engine/internal/cache"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		lang  string
		brand string
		model string
		year  int
		want  string
	}{
		{"lower cased", "EN", "Bentley", "Batur", 2024, "en|bentley|batur|2024"},
		{"trimmed", " tr ", " Bentley ", "Batur", 2024, "tr|bentley|batur|2024"},
		{"equivalent selections collide", "en", "BENTLEY", "batur", 2024, "en|bentley|batur|2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.lang, tt.brand, tt.model, tt.year))
		})
	}
}

// fakeStore is an in-memory Store that can be forced to fail.
type fakeStore struct {
	entries map[string]Entry
	setErr  error
	sets    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]Entry)}
}

func (s *fakeStore) GetBrief(ctx context.Context, key string) (Entry, error) {
	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, cache.ErrCacheMiss
	}
	return entry, nil
}

func (s *fakeStore) SetBrief(ctx context.Context, key string, entry Entry) error {
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = entry
	return nil
}

func TestBriefCacheTTL(t *testing.T) {
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	c := NewBriefCache(nil, nil, BriefCacheConfig{Now: clock})
	ctx := context.Background()
	key := Key("en", "Bentley", "Batur", 2024)

	c.Put(ctx, key, "A coachbuilt grand tourer.")

	t.Run("fresh just under the TTL", func(t *testing.T) {
		current = current.Add(12*time.Hour - time.Minute)
		text, ok := c.Get(ctx, key)
		require.True(t, ok)
		assert.Equal(t, "A coachbuilt grand tourer.", text)
	})

	t.Run("stale at the TTL boundary", func(t *testing.T) {
		current = current.Add(time.Minute)
		_, ok := c.Get(ctx, key)
		assert.False(t, ok)
	})

	t.Run("stale entry stays stale", func(t *testing.T) {
		current = current.Add(time.Hour)
		_, ok := c.Get(ctx, key)
		assert.False(t, ok)
	})
}

func TestBriefCacheStoreTier(t *testing.T) {
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }
	ctx := context.Background()
	key := Key("tr", "Bentley", "Batur", 2024)

	t.Run("write-through and promote on read", func(t *testing.T) {
		store := newFakeStore()
		c := NewBriefCache(store, nil, BriefCacheConfig{Now: clock})

		c.Put(ctx, key, "Özel üretim bir gran turismo.")
		assert.Equal(t, 1, store.sets)

		// A second cache instance sharing the store sees the entry and
		// promotes it into its own memory tier.
		other := NewBriefCache(store, nil, BriefCacheConfig{Now: clock})
		text, ok := other.Get(ctx, key)
		require.True(t, ok)
		assert.Equal(t, "Özel üretim bir gran turismo.", text)

		other.mu.RLock()
		_, promoted := other.mem[key]
		other.mu.RUnlock()
		assert.True(t, promoted)
	})

	t.Run("store failures are swallowed", func(t *testing.T) {
		store := newFakeStore()
		store.setErr = errors.New("connection refused")
		c := NewBriefCache(store, nil, BriefCacheConfig{Now: clock})

		c.Put(ctx, key, "still cached in memory")

		text, ok := c.Get(ctx, key)
		require.True(t, ok)
		assert.Equal(t, "still cached in memory", text)
	})

	t.Run("stale store entry is a miss", func(t *testing.T) {
		store := newFakeStore()
		store.entries[key] = Entry{Text: "old", CachedAt: current.Add(-13 * time.Hour)}
		c := NewBriefCache(store, nil, BriefCacheConfig{Now: clock})

		_, ok := c.Get(ctx, key)
		assert.False(t, ok)
	})
}

func TestBriefCachePurge(t *testing.T) {
	c := NewBriefCache(nil, nil, BriefCacheConfig{})
	ctx := context.Background()

	c.Put(ctx, "en|bentley|batur|2024", "text")
	c.Purge()

	_, ok := c.Get(ctx, "en|bentley|batur|2024")
	assert.False(t, ok)
}

func TestCacheStore(t *testing.T) {
	client := cache.NewMemoryClient(10)
	defer client.Close()
	store := NewCacheStore(client, time.Hour)
	ctx := context.Background()

	entry := Entry{Text: "cached brief", CachedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, store.SetBrief(ctx, "en|bentley|batur|2024", entry))

	got, err := store.GetBrief(ctx, "en|bentley|batur|2024")
	require.NoError(t, err)
	assert.Equal(t, entry.Text, got.Text)
	assert.True(t, entry.CachedAt.Equal(got.CachedAt))

	_, err = store.GetBrief(ctx, "en|unknown|model|2020")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
