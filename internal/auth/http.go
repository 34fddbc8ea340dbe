package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.service.AllowLogin(r) {
		writeErr(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var in struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Login == "" || in.Password == "" {
		writeErr(w, http.StatusBadRequest, "login and password are required")
		return
	}

	u, token, exp, err := h.service.Login(in.Login, in.Password, time.Now())
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeErr(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.service.SetSessionCookie(w, r, token, exp)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"isAdmin": u.IsAdmin,
		"name":    u.Name,
	})
}

// GET /auth/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	u, ok := h.service.AuthenticateRequest(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.ClearSessionCookie(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
