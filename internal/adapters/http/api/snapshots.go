package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/oledu/pyramidgo/internal/adapters/mq/queue"
	service "github.com/oledu/pyramidgo/internal/app"
	"github.com/oledu/pyramidgo/internal/domain/model"
)

// SnapshotDependencies defines the interface for snapshot intake.
type SnapshotDependencies interface {
	Submit(ctx context.Context, data []byte) (service.Submission, error)
}

// SnapshotHandler handles snapshot submissions.
type SnapshotHandler struct {
	deps     SnapshotDependencies
	maxBytes int64
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps SnapshotDependencies, maxBytes int64) *SnapshotHandler {
	return &SnapshotHandler{deps: deps, maxBytes: maxBytes}
}

type ackResponse struct {
	Status string `json:"status"`
	service.Submission
}

// HandlePostSnapshot handles POST /snapshots requests.
func (h *SnapshotHandler) HandlePostSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_snapshot"

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	sub, err := h.deps.Submit(r.Context(), data)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrMalformedSnapshot):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	case errors.Is(err, queue.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
		return
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	if sub.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Submission: sub})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Submission: sub})
}
