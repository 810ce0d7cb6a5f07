// Package handlers provides HTTP handlers for the valuation API.
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vozant-ai/valuation-engine/internal/appraisal"
	"github.com/vozant-ai/valuation-engine/internal/i18n"
	"github.com/vozant-ai/valuation-engine/internal/observability"
	"github.com/vozant-ai/valuation-engine/internal/selection"
)

// AppraisalHandler handles appraisal submissions. Each client session gets
// its own appraisal.Session so stale-response discard works per client.
type AppraisalHandler struct {
	logger       *observability.Logger
	orchestrator *appraisal.Orchestrator

	mu       sync.Mutex
	sessions map[string]*appraisal.Session
}

// NewAppraisalHandler creates a new appraisal handler.
func NewAppraisalHandler(logger *observability.Logger, orchestrator *appraisal.Orchestrator) *AppraisalHandler {
	return &AppraisalHandler{
		logger:       logger,
		orchestrator: orchestrator,
		sessions:     make(map[string]*appraisal.Session),
	}
}

// AppraiseRequestDTO represents an appraisal submission.
type AppraiseRequestDTO struct {
	SessionID string             `json:"sessionId,omitempty"`
	Language  string             `json:"language,omitempty"`
	Features  selection.Features `json:"features"`
}

// AppraiseResponseDTO represents the appraisal response.
type AppraiseResponseDTO struct {
	SessionID string            `json:"sessionId"`
	Result    *appraisal.Result `json:"result"`
}

// Submit handles POST /appraisals.
func (h *AppraisalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var reqDTO AppraiseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sessionID := reqDTO.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	session := h.session(sessionID)

	lang := i18n.Normalize(reqDTO.Language)
	result := h.orchestrator.Submit(r.Context(), session, reqDTO.Features, lang)

	h.logger.Debug().
		Str("session_id", sessionID).
		Uint64("submission", result.Submission).
		Msg("Appraisal submitted")

	writeJSON(w, http.StatusOK, AppraiseResponseDTO{
		SessionID: sessionID,
		Result:    result,
	})
}

// Latest handles GET /appraisals/{sessionId}: the most recently committed
// result for the session.
func (h *AppraisalHandler) Latest(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	h.mu.Lock()
	session, ok := h.sessions[sessionID]
	h.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session", "")
		return
	}

	result := session.Result()
	if result == nil {
		writeError(w, http.StatusNotFound, "no appraisal yet", "")
		return
	}

	writeJSON(w, http.StatusOK, AppraiseResponseDTO{
		SessionID: sessionID,
		Result:    result,
	})
}

func (h *AppraisalHandler) session(id string) *appraisal.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok {
		return s
	}
	s := appraisal.NewSession()
	h.sessions[id] = s
	return s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	json.NewEncoder(w).Encode(resp)
}
