package api

import (
	"net/http"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps ResultDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps ResultDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
	RunID  string `json:"runId,omitempty"`
}

// HandleHealth handles GET /healthz requests. The process is healthy as
// soon as it serves; ready flips once a result has been published.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if res, ok := h.deps.Result(); ok {
		resp.Ready = true
		resp.RunID = res.RunID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}
