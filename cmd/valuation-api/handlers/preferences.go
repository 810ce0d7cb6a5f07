package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vozant-ai/valuation-engine/internal/observability"
	"github.com/vozant-ai/valuation-engine/internal/storage"
)

// PreferencesHandler serves persisted UI preferences.
type PreferencesHandler struct {
	logger *observability.Logger
	repo   *storage.PreferenceRepository
}

// NewPreferencesHandler creates a new preferences handler.
func NewPreferencesHandler(logger *observability.Logger, repo *storage.PreferenceRepository) *PreferencesHandler {
	return &PreferencesHandler{logger: logger, repo: repo}
}

// PreferencesDTO represents the persisted UI preferences. Absent fields are
// left unchanged on update.
type PreferencesDTO struct {
	Theme    *string `json:"theme,omitempty"`
	Language *string `json:"language,omitempty"`
}

// Get handles GET /preferences.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var dto PreferencesDTO

	if theme, err := h.repo.Get(ctx, storage.PrefTheme); err == nil {
		dto.Theme = &theme
	} else if !errors.Is(err, storage.ErrNotFound) {
		h.logger.Error().Err(err).Msg("Failed to read theme preference")
		writeError(w, http.StatusInternalServerError, "failed to read preferences", "")
		return
	}

	if lang, err := h.repo.Get(ctx, storage.PrefLanguage); err == nil {
		dto.Language = &lang
	} else if !errors.Is(err, storage.ErrNotFound) {
		h.logger.Error().Err(err).Msg("Failed to read language preference")
		writeError(w, http.StatusInternalServerError, "failed to read preferences", "")
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// Update handles PUT /preferences.
func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var dto PreferencesDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx := r.Context()
	if dto.Theme != nil {
		if err := h.repo.Set(ctx, storage.PrefTheme, *dto.Theme); err != nil {
			h.logger.Error().Err(err).Msg("Failed to store theme preference")
			writeError(w, http.StatusInternalServerError, "failed to store preferences", "")
			return
		}
	}
	if dto.Language != nil {
		if err := h.repo.Set(ctx, storage.PrefLanguage, *dto.Language); err != nil {
			h.logger.Error().Err(err).Msg("Failed to store language preference")
			writeError(w, http.StatusInternalServerError, "failed to store preferences", "")
			return
		}
	}

	h.Get(w, r)
}
