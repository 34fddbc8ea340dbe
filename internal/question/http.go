package question

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// Handler serves the question-bank read endpoints. Authentication is
// enforced by middleware on the route group.
type Handler struct {
	bank *Bank
}

func NewHandler(bank *Bank) *Handler {
	return &Handler{bank: bank}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// GET /quiz/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": h.bank.Categories()})
}

// GET /quiz/questions?category=&difficulty=[&count=N|&count=true]
//
// count=true returns only the number of available questions. A numeric
// count returns a random sample of that size, capped at availability. The
// response includes true_answer: the client renders per-question feedback,
// so it holds the answer key. Known exposure, kept for contract
// compatibility.
func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	difficulty := r.URL.Query().Get("difficulty")
	countParam := r.URL.Query().Get("count")

	if category == "" || difficulty == "" {
		writeErr(w, http.StatusBadRequest, "category and difficulty are required")
		return
	}

	if countParam == "true" {
		n, err := h.bank.Count(category, difficulty)
		if err != nil {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": n})
		return
	}

	count := 0
	if countParam != "" {
		n, err := strconv.Atoi(countParam)
		if err != nil || n < 1 {
			writeErr(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}

	qs, err := h.bank.Questions(category, difficulty, count)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, "failed to fetch questions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
}
