package handler

import (
	"errors"
	"net/http"

	"reread/internal/auth"

	"gorm.io/gorm"
)

type MeHandler struct {
	DB *gorm.DB
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var u auth.User
	err := h.DB.WithContext(r.Context()).First(&u, uid).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case err != nil:
		writeError(w, err)
	default:
		writeJSON(w, http.StatusOK, u)
	}
}
