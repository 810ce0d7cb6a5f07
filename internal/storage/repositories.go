package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vozant-ai/valuation-engine/internal/cache"
	"github.com/vozant-ai/valuation-engine/internal/insight"
)

// ErrNotFound indicates a missing record.
var ErrNotFound = errors.New("record not found")

// Preference keys persisted for the UI.
const (
	PrefTheme    = "theme"
	PrefLanguage = "language"
)

// DB is the database handle subset the repositories need.
type DB interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PreferenceRepository persists UI preferences as key-value rows.
type PreferenceRepository struct {
	db DB
}

// NewPreferenceRepository creates a new preference repository.
func NewPreferenceRepository(db DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get retrieves a preference value.
func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set stores a preference value, replacing any prior one.
func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3
	`, key, value, time.Now().UTC())
	return err
}

// InsightCacheRepository is the SQL-backed persistent tier of the
// vehicle-brief cache. Rows are never proactively expired; freshness is
// decided by the reading cache.
type InsightCacheRepository struct {
	db DB
}

// NewInsightCacheRepository creates a new insight cache repository.
func NewInsightCacheRepository(db DB) *InsightCacheRepository {
	return &InsightCacheRepository{db: db}
}

// GetBrief retrieves a cached brief entry.
func (r *InsightCacheRepository) GetBrief(ctx context.Context, key string) (insight.Entry, error) {
	var entry insight.Entry
	err := r.db.QueryRowContext(ctx,
		`SELECT text, cached_at FROM insight_cache WHERE cache_key = $1`, key,
	).Scan(&entry.Text, &entry.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return insight.Entry{}, cache.ErrCacheMiss
	}
	return entry, err
}

// SetBrief stores a brief entry, replacing any prior one for the key.
func (r *InsightCacheRepository) SetBrief(ctx context.Context, key string, entry insight.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO insight_cache (cache_key, text, cached_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET text = $2, cached_at = $3
	`, key, entry.Text, entry.CachedAt.UTC())
	return err
}

// Purge removes every cached brief.
func (r *InsightCacheRepository) Purge(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM insight_cache`)
	return err
}

var _ insight.Store = (*InsightCacheRepository)(nil)
