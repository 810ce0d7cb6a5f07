package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vozant-ai/valuation-engine/internal/cache"
	"github.com/vozant-ai/valuation-engine/internal/observability"
	"github.com/vozant-ai/valuation-engine/internal/selection"
	"github.com/vozant-ai/valuation-engine/internal/taxonomy"
)

const (
	snapshotCacheKey = "taxonomy:snapshot"
	snapshotCacheTTL = 5 * time.Minute
)

// OptionsHandler serves the option taxonomy and selection resolution.
type OptionsHandler struct {
	logger   *observability.Logger
	provider taxonomy.Provider
	cache    cache.Client
	rule     selection.MileageRule
}

// NewOptionsHandler creates a new options handler. A zero mileage rule falls
// back to the default bounds.
func NewOptionsHandler(logger *observability.Logger, provider taxonomy.Provider, cacheClient cache.Client, rule selection.MileageRule) *OptionsHandler {
	if rule == (selection.MileageRule{}) {
		rule = selection.DefaultMileageRule()
	}
	return &OptionsHandler{
		logger:   logger,
		provider: provider,
		cache:    cacheClient,
		rule:     rule,
	}
}

// Options handles GET /options: the full taxonomy snapshot.
func (h *OptionsHandler) Options(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r.Context())
	writeJSON(w, http.StatusOK, snap)
}

// ResolveRequestDTO represents a selection to resolve.
type ResolveRequestDTO struct {
	Features selection.Features `json:"features"`
}

// ResolveResponseDTO represents the corrected selection and its valid sets.
type ResolveResponseDTO struct {
	Features  selection.Features  `json:"features"`
	ValidSets selection.ValidSets `json:"validSets"`
}

// Resolve handles POST /options/resolve: auto-correct a selection against
// the current taxonomy and report the valid sets for each field.
func (h *OptionsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var reqDTO ResolveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	snap := h.snapshot(r.Context())
	corrected, sets := selection.Resolve(reqDTO.Features, snap)
	corrected = corrected.WithCondition(corrected.IsNew, h.rule)

	writeJSON(w, http.StatusOK, ResolveResponseDTO{
		Features:  corrected,
		ValidSets: sets,
	})
}

// Refresh handles POST /options/refresh: drop the cached snapshot and serve
// a freshly fetched taxonomy.
func (h *OptionsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.cache != nil {
		if err := h.cache.Delete(ctx, snapshotCacheKey); err != nil && err != cache.ErrCacheMiss {
			h.logger.Debug().Err(err).Msg("Failed to drop cached taxonomy snapshot")
		}
	}
	writeJSON(w, http.StatusOK, h.snapshot(ctx))
}

// snapshot returns the current taxonomy, served from cache when fresh. A
// fetch failure degrades to an empty snapshot so resolution still answers.
func (h *OptionsHandler) snapshot(ctx context.Context) *taxonomy.Snapshot {
	if h.cache != nil {
		if data, err := h.cache.Get(ctx, snapshotCacheKey); err == nil {
			var snap taxonomy.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return &snap
			}
		}
	}

	snap, err := h.provider.Fetch(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Taxonomy fetch failed, serving empty snapshot")
		return taxonomy.Empty()
	}

	if h.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := h.cache.Set(ctx, snapshotCacheKey, data, snapshotCacheTTL); err != nil {
				h.logger.Debug().Err(err).Msg("Failed to cache taxonomy snapshot")
			}
		}
	}

	return snap
}
