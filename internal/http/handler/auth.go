package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"reread/internal/auth"

	"gorm.io/gorm"
)

const minPasswordLen = 8

type AuthHandler struct {
	DB  *gorm.DB
	JWT *auth.JWT
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *credentialsReq) normalize() {
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
}

type tokenResp struct {
	Token     string    `json:"token"`
	UserID    uint64    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *AuthHandler) issue(w http.ResponseWriter, status int, userID uint64) {
	token, exp, err := h.JWT.Issue(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, tokenResp{Token: token, UserID: userID, ExpiresAt: exp})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if !decode(w, r, &req) {
		return
	}
	req.normalize()
	if !strings.Contains(req.Email, "@") || len(req.Password) < minPasswordLen {
		badRequest(w, "email and a password of at least 8 characters required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	u := auth.User{Email: req.Email, PasswordHash: hash}
	if err := h.DB.WithContext(r.Context()).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already used"})
			return
		}
		writeError(w, err)
		return
	}
	h.issue(w, http.StatusCreated, u.ID)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if !decode(w, r, &req) {
		return
	}
	req.normalize()
	if req.Email == "" || req.Password == "" {
		badRequest(w, "email and password required")
		return
	}

	var u auth.User
	err := h.DB.WithContext(r.Context()).Where("email = ?", req.Email).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	case err != nil:
		writeError(w, err)
		return
	}
	if !auth.ComparePassword(u.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	_ = h.DB.WithContext(r.Context()).Model(&u).Update("last_login_at", time.Now()).Error
	h.issue(w, http.StatusOK, u.ID)
}
