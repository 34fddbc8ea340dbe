package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the setup and admin user-management endpoints. Admin
// authorization is enforced by middleware on the route group, not here.
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

// apiUser is the wire shape of a user record; the password hash never
// leaves the server.
type apiUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Login     string `json:"login"`
	IsAdmin   bool   `json:"isAdmin"`
	CreatedAt string `json:"createdAt"`
}

func toAPIUser(u User) apiUser {
	return apiUser{
		ID:        u.ID,
		Name:      u.Name,
		Login:     u.Login,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// POST /setup
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	if _, err := h.service.SetupFirstAdmin(in.Name, in.Login, in.Password); err != nil {
		switch {
		case errors.Is(err, ErrSetupCompleted),
			errors.Is(err, ErrMissingFields),
			errors.Is(err, ErrPasswordTooShort):
			writeErr(w, http.StatusBadRequest, err.Error())
		default:
			writeErr(w, http.StatusInternalServerError, "setup failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GET /admin/users
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	out := make([]apiUser, 0, len(users))
	for _, u := range users {
		out = append(out, toAPIUser(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

// POST /admin/users
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Login    string `json:"login"`
		Password string `json:"password"`
		IsAdmin  bool   `json:"isAdmin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	u, err := h.service.Create(in.Name, in.Login, in.Password, in.IsAdmin)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrPasswordTooShort):
			writeErr(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDuplicateLogin):
			writeErr(w, http.StatusConflict, err.Error())
		default:
			writeErr(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": toAPIUser(u)})
}

// DELETE /admin/users/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(id); err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
