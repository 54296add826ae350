package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/omadigital/engage-core/internal/monitoring"
)

// AdminMetricsHandler serves the in-memory quality report for dashboards.
type AdminMetricsHandler struct {
	snapshot *monitoring.Snapshot
}

func NewAdminMetricsHandler(snapshot *monitoring.Snapshot) *AdminMetricsHandler {
	return &AdminMetricsHandler{snapshot: snapshot}
}

// HandleReport returns detection accuracy, response quality and
// satisfaction aggregates.
//
//	GET /admin/chat/metrics
func (h *AdminMetricsHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot.Report())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
