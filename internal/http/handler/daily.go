package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reread/internal/auth"
	"reread/internal/daily"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DailyService is what the daily endpoints drive; *daily.Reconciler.
type DailyService interface {
	Assign(ctx context.Context, owner uint64, p daily.Period, clock daily.Clock) (*daily.Result, error)
	Redistribute(ctx context.Context, owner uint64, clock daily.Clock, newIDs []uuid.UUID) (*daily.Result, error)
	Cleanup(ctx context.Context, owner uint64, clock daily.Clock, date string) (*daily.Result, error)
	Reset(ctx context.Context, owner uint64, p daily.Period) (*daily.Result, error)
	Rate(ctx context.Context, owner uint64, assignmentID uuid.UUID, rating daily.Rating) error
	BackfillMarks(ctx context.Context, owner uint64, p daily.Period) (int, error)
	Month(ctx context.Context, owner uint64, p daily.Period) (*daily.MonthView, error)
}

var _ DailyService = (*daily.Reconciler)(nil)

type DailyHandler struct {
	Svc DailyService
	// Now returns the current time in the configured zone.
	Now func() time.Time
}

func (h *DailyHandler) clock() daily.Clock {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	return daily.NewClock(now)
}

type periodReq struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (p periodReq) period() daily.Period { return daily.Period{Year: p.Year, Month: p.Month} }

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "bad json")
		return false
	}
	return true
}

func (h *DailyHandler) Month(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	p := h.clock().Period()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(w, "invalid year")
			return
		}
		p.Year = n
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(w, "invalid month")
			return
		}
		p.Month = n
	}

	view, err := h.Svc.Month(r.Context(), uid, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *DailyHandler) Assign(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req periodReq
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Svc.Assign(r.Context(), uid, req.period(), h.clock())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type redistributeReq struct {
	HighlightIDs []uuid.UUID `json:"highlight_ids"`
}

func (h *DailyHandler) Redistribute(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req redistributeReq
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Svc.Redistribute(r.Context(), uid, h.clock(), req.HighlightIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type cleanupReq struct {
	Date string `json:"date"`
}

func (h *DailyHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req cleanupReq
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Svc.Cleanup(r.Context(), uid, h.clock(), strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *DailyHandler) Reset(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req periodReq
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Svc.Reset(r.Context(), uid, req.period())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *DailyHandler) BackfillMarks(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req periodReq
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Svc.BackfillMarks(r.Context(), uid, req.period())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": n})
}

type rateReq struct {
	Rating daily.Rating `json:"rating"`
}

func (h *DailyHandler) Rate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var req rateReq
	if !decode(w, r, &req) {
		return
	}
	if err := h.Svc.Rate(r.Context(), uid, id, req.Rating); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
