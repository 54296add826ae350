package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omadigital/engage-core/internal/experiments"
	"github.com/omadigital/engage-core/internal/monitoring"
	"github.com/omadigital/engage-core/pkg/logging"
)

// ExperimentsHandler exposes variant assignment and conversion tracking.
type ExperimentsHandler struct {
	svc     *experiments.Service
	metrics *monitoring.ChatMetrics
	logger  *logging.Logger
}

func NewExperimentsHandler(svc *experiments.Service, metrics *monitoring.ChatMetrics, logger *logging.Logger) *ExperimentsHandler {
	if logger == nil {
		logger = logging.Default().WithComponent("experiments_handler")
	}
	return &ExperimentsHandler{svc: svc, metrics: metrics, logger: logger}
}

// HandleVariant returns the sticky variant for a session.
//
//	POST /experiments/{name}/variant {"session_id": "..."}
func (h *ExperimentsHandler) HandleVariant(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	variant, err := h.svc.VariantFor(r.Context(), req.SessionID, name)
	if err != nil {
		if errors.Is(err, experiments.ErrNotActive) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if _, ok := h.svc.Definition(name); !ok {
			http.Error(w, "unknown experiment", http.StatusNotFound)
			return
		}
		h.logger.Error("variant assignment failed", "experiment", name, "error", err)
		http.Error(w, "failed to assign variant", http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveAssignment(name, variant)

	writeJSON(w, http.StatusOK, map[string]string{
		"experiment": name,
		"variant":    variant,
	})
}

// HandleConversion logs a conversion event. The variant may be named in the
// body; otherwise the session's stored assignment is used.
//
//	POST /experiments/{name}/conversion {"session_id": "...", "variant": "A", "value": 1}
func (h *ExperimentsHandler) HandleConversion(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req struct {
		SessionID string            `json:"session_id"`
		Variant   string            `json:"variant"`
		Value     float64           `json:"value"`
		Metadata  map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	h.svc.RecordConversion(r.Context(), req.SessionID, name, req.Variant, req.Value, req.Metadata)
	w.WriteHeader(http.StatusAccepted)
}

// HandleRate reports a variant's conversion rate from the event log.
//
//	GET /experiments/{name}/rate?variant=A
func (h *ExperimentsHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	variant := r.URL.Query().Get("variant")
	if variant == "" {
		http.Error(w, "variant parameter required", http.StatusBadRequest)
		return
	}

	rate, err := h.svc.ConversionRate(r.Context(), name, variant)
	if err != nil {
		h.logger.Error("conversion rate query failed", "experiment", name, "error", err)
		http.Error(w, "failed to compute conversion rate", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"experiment":      name,
		"variant":         variant,
		"conversion_rate": rate,
	})
}
