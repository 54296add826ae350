package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omadigital/engage-core/internal/cta"
	"github.com/omadigital/engage-core/pkg/logging"
)

// CTAHandler exposes CTA interaction tracking and catalog administration.
type CTAHandler struct {
	repo    *cta.Repository
	catalog *cta.Catalog
	logger  *logging.Logger
}

func NewCTAHandler(repo *cta.Repository, catalog *cta.Catalog, logger *logging.Logger) *CTAHandler {
	if logger == nil {
		logger = logging.Default().WithComponent("cta_handler")
	}
	return &CTAHandler{repo: repo, catalog: catalog, logger: logger}
}

// HandleEvent records a view, click or conversion against a CTA.
//
//	POST /cta/{id}/events {"session_id": "...", "kind": "click"}
func (h *CTAHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctaID := chi.URLParam(r, "id")

	var req struct {
		SessionID string            `json:"session_id"`
		Kind      string            `json:"kind"`
		Value     float64           `json:"value"`
		Metadata  map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	kind := cta.EventKind(req.Kind)
	switch kind {
	case cta.EventView, cta.EventClick, cta.EventConversion:
	default:
		http.Error(w, "kind must be view, click or conversion", http.StatusBadRequest)
		return
	}

	// Telemetry is best-effort; a persistence failure never fails the caller.
	if err := h.repo.RecordEvent(r.Context(), cta.Event{
		CTAID:     ctaID,
		SessionID: req.SessionID,
		Kind:      kind,
		Value:     req.Value,
		Metadata:  req.Metadata,
	}); err != nil {
		h.logger.Error("failed to record cta event", "cta_id", ctaID, "error", err)
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleInvalidate kicks an immediate catalog refresh.
//
//	POST /admin/cta/invalidate
func (h *CTAHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	h.catalog.Invalidate()
	w.WriteHeader(http.StatusAccepted)
}
