package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vozant-ai/valuation-engine/internal/cache"
	"github.com/vozant-ai/valuation-engine/internal/observability"
)

// DefaultBriefTTL is how long a generated vehicle brief stays fresh.
const DefaultBriefTTL = 12 * time.Hour

// Entry is a cached vehicle brief with its generation time.
type Entry struct {
	Text     string    `json:"text"`
	CachedAt time.Time `json:"cached_at"`
}

// Store is the persistent tier of the brief cache.
type Store interface {
	// GetBrief returns cache.ErrCacheMiss when the key is absent.
	GetBrief(ctx context.Context, key string) (Entry, error)
	SetBrief(ctx context.Context, key string, entry Entry) error
}

// Key builds the cache key for a vehicle brief. Components are trimmed,
// lower-cased and pipe-joined so that equivalent selections share an entry.
func Key(lang, brand, model string, year int) string {
	parts := []string{lang, brand, model, strconv.Itoa(year)}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "|")
}

// BriefCache is a two-tier cache for generated vehicle briefs: an in-process
// map backed by a persistent Store. Expiry is evaluated lazily at read time,
// so a stale entry is simply skipped rather than actively evicted.
type BriefCache struct {
	mu     sync.RWMutex
	mem    map[string]Entry
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *observability.Logger
}

// BriefCacheConfig configures the brief cache.
type BriefCacheConfig struct {
	// TTL defaults to DefaultBriefTTL when zero.
	TTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewBriefCache creates a brief cache. The store may be nil, in which case
// only the in-process tier is used.
func NewBriefCache(store Store, logger *observability.Logger, cfg BriefCacheConfig) *BriefCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultBriefTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = observability.Discard()
	}

	return &BriefCache{
		mem:    make(map[string]Entry),
		store:  store,
		ttl:    ttl,
		now:    now,
		logger: logger,
	}
}

// Get returns the cached brief for the key if it is still fresh. A fresh hit
// in the persistent tier is promoted into memory.
func (c *BriefCache) Get(ctx context.Context, key string) (string, bool) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		if c.fresh(entry, now) {
			return entry.Text, true
		}
		c.mu.Lock()
		delete(c.mem, key)
		c.mu.Unlock()
	}

	if c.store == nil {
		return "", false
	}

	entry, err := c.store.GetBrief(ctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			c.logger.Debug().Err(err).Str("key", key).Msg("Brief store read error")
		}
		return "", false
	}
	if !c.fresh(entry, now) {
		return "", false
	}

	// Promote so subsequent reads skip the store.
	c.mu.Lock()
	c.mem[key] = entry
	c.mu.Unlock()

	return entry.Text, true
}

// Put stores a brief in both tiers. Persistence failures are logged and
// swallowed; the in-process tier always succeeds.
func (c *BriefCache) Put(ctx context.Context, key, text string) {
	entry := Entry{Text: text, CachedAt: c.now()}

	c.mu.Lock()
	c.mem[key] = entry
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.SetBrief(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to persist vehicle brief")
	}
}

// Purge drops the in-process tier. Persistent entries age out via TTL.
func (c *BriefCache) Purge() {
	c.mu.Lock()
	c.mem = make(map[string]Entry)
	c.mu.Unlock()
}

func (c *BriefCache) fresh(entry Entry, now time.Time) bool {
	return now.Sub(entry.CachedAt) < c.ttl
}

// CacheStore adapts a cache.Client into a brief Store, serializing entries
// as JSON under the brief key space.
type CacheStore struct {
	client cache.Client
	ttl    time.Duration
}

// NewCacheStore creates a Store backed by the given cache client.
func NewCacheStore(client cache.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultBriefTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

// GetBrief retrieves a brief entry from the cache client.
func (s *CacheStore) GetBrief(ctx context.Context, key string) (Entry, error) {
	data, err := s.client.Get(ctx, cache.BriefKey(key))
	if err != nil {
		return Entry{}, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("unmarshal brief entry: %w", err)
	}
	return entry, nil
}

// SetBrief writes a brief entry through the cache client.
func (s *CacheStore) SetBrief(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal brief entry: %w", err)
	}
	return s.client.Set(ctx, cache.BriefKey(key), data, s.ttl)
}

var _ Store = (*CacheStore)(nil)
