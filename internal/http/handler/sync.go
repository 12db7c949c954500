package handler

import (
	"context"
	"net/http"
	"strconv"

	"reread/internal/auth"
	"reread/internal/jobs"

	"github.com/go-chi/chi/v5"
)

type SyncQueue interface {
	ListFailed(ctx context.Context, userID uint64, limit int) ([]jobs.Job, error)
	Requeue(ctx context.Context, userID, id uint64) error
}

var _ SyncQueue = (*jobs.Repo)(nil)

type SyncHandler struct {
	Queue SyncQueue
}

func (h *SyncHandler) Failed(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	out, err := h.Queue.ListFailed(r.Context(), uid, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []jobs.Job{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SyncHandler) Retry(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := h.Queue.Requeue(r.Context(), uid, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
