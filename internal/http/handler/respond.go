package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"reread/internal/daily"
	"reread/internal/highlight"
	"reread/internal/jobs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto status codes. Store failures are
// reported without their internals.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "server error"

	var ve *daily.ValidationError
	switch {
	case errors.As(err, &ve):
		status, msg = http.StatusBadRequest, ve.Error()
	case errors.Is(err, daily.ErrValidation), errors.Is(err, highlight.ErrInvalid):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, daily.ErrNotFound), errors.Is(err, highlight.ErrNotFound), errors.Is(err, jobs.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
