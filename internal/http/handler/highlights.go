package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reread/internal/auth"
	"reread/internal/daily"
	"reread/internal/highlight"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type HighlightService interface {
	Create(ctx context.Context, userID uint64, in highlight.CreateInput) (*highlight.Highlight, error)
	Get(ctx context.Context, userID uint64, id uuid.UUID) (*highlight.Highlight, error)
	List(ctx context.Context, userID uint64, f highlight.ListFilter) ([]highlight.Highlight, error)
	Tags(ctx context.Context, userID uint64, prefix string, limit int) ([]highlight.TagCount, error)
	Update(ctx context.Context, userID uint64, id uuid.UUID, in highlight.UpdateInput) (*highlight.Highlight, error)
	SetArchived(ctx context.Context, userID uint64, id uuid.UUID, archived bool) (*highlight.Highlight, error)
	Delete(ctx context.Context, userID uint64, id uuid.UUID) error
}

// Redistributor places freshly created highlights into the month.
type Redistributor interface {
	Redistribute(ctx context.Context, owner uint64, clock daily.Clock, newIDs []uuid.UUID) (*daily.Result, error)
}

var _ HighlightService = (*highlight.Service)(nil)

type HighlightHandler struct {
	Svc      HighlightService
	Schedule Redistributor
	Now      func() time.Time
	Log      *slog.Logger
}

type highlightDTO struct {
	ID           uuid.UUID `json:"id"`
	Text         string    `json:"text"`
	HTML         *string   `json:"html,omitempty"`
	Source       string    `json:"source"`
	NotionPageID *string   `json:"notion_page_id,omitempty"`
	Tags         []string  `json:"tags"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toDTO(h *highlight.Highlight) highlightDTO {
	tags := []string(h.Tags)
	if tags == nil {
		tags = []string{}
	}
	return highlightDTO{
		ID:           h.ID,
		Text:         h.Text,
		HTML:         h.HTML,
		Source:       h.Source,
		NotionPageID: h.NotionPageID,
		Tags:         tags,
		Archived:     h.Archived,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
}

func (h *HighlightHandler) log() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

type createHighlightReq struct {
	Text         string   `json:"text"`
	HTML         *string  `json:"html"`
	Source       string   `json:"source"`
	Tags         []string `json:"tags"`
	NotionPageID *string  `json:"notion_page_id"`
}

func (h *HighlightHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createHighlightReq
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text required")
		return
	}

	hl, err := h.Svc.Create(r.Context(), uid, highlight.CreateInput{
		Text:         req.Text,
		HTML:         req.HTML,
		Source:       req.Source,
		Tags:         req.Tags,
		NotionPageID: req.NotionPageID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// a failed placement leaves the highlight to the last-day sweep
	resp := map[string]any{"highlight": toDTO(hl)}
	if h.Schedule != nil {
		now := time.Now()
		if h.Now != nil {
			now = h.Now()
		}
		res, err := h.Schedule.Redistribute(r.Context(), uid, daily.NewClock(now), []uuid.UUID{hl.ID})
		if err != nil {
			h.log().Error("redistribute after create failed", "owner", uid, "highlight", hl.ID, "err", err)
			resp["schedule_error"] = "placement failed"
		} else {
			resp["schedule"] = res
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *HighlightHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	f := highlight.ListFilter{
		Tag:   q.Get("tag"),
		Query: q.Get("q"),
	}
	switch strings.TrimSpace(strings.ToLower(q.Get("archived"))) {
	case "true":
		v := true
		f.Archived = &v
	case "false":
		v := false
		f.Archived = &v
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = n
		}
	}

	rows, err := h.Svc.List(r.Context(), uid, f)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]highlightDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HighlightHandler) Tags(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	out, err := h.Svc.Tags(r.Context(), uid, r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *HighlightHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	hl, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(hl))
}

type updateHighlightReq struct {
	Text   *string  `json:"text"`
	HTML   *string  `json:"html"`
	Source *string  `json:"source"`
	Tags   []string `json:"tags"`
}

func (h *HighlightHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateHighlightReq
	if !decode(w, r, &req) {
		return
	}
	hl, err := h.Svc.Update(r.Context(), uid, id, highlight.UpdateInput{
		Text:   req.Text,
		HTML:   req.HTML,
		Source: req.Source,
		Tags:   req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(hl))
}

func (h *HighlightHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

func (h *HighlightHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *HighlightHandler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	hl, err := h.Svc.SetArchived(r.Context(), uid, id, archived)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(hl))
}

func (h *HighlightHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), uid, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
