package quiz

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rcsquiz/internal/auth"
	"rcsquiz/internal/question"
)

// Handler is the server-confirmed attempt surface: the session engine runs
// on the server and the client only ever sees the current question with
// freshly shuffled answers, never the answer key.
type Handler struct {
	bank     *question.Bank
	attempts *MemoryRepo
	clock    Clock
}

func NewHandler(bank *question.Bank, attempts *MemoryRepo, clock Clock) *Handler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Handler{bank: bank, attempts: attempts, clock: clock}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

type questionView struct {
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
}

type attemptView struct {
	State            State         `json:"state"`
	Category         string        `json:"category"`
	Difficulty       string        `json:"difficulty"`
	Score            int           `json:"score"`
	Answered         int           `json:"answered"`
	RemainingSeconds int           `json:"remainingSeconds"`
	Question         *questionView `json:"question,omitempty"`
}

func (h *Handler) view(a *Attempt) attemptView {
	now := h.clock.Now()
	a.ExpireIfDue(now)

	v := attemptView{
		State:            a.State,
		Category:         a.Category,
		Difficulty:       a.Difficulty,
		Score:            a.Score,
		Answered:         len(a.Answers),
		RemainingSeconds: a.Remaining(now),
	}
	if q, ok := a.CurrentQuestion(); ok {
		v.Question = &questionView{
			Index:    a.CurrentIndex,
			Total:    a.QuestionCount,
			Question: q.Text,
			Answers:  question.ShuffledAnswers(q),
		}
	}
	return v
}

// POST /quiz/attempts
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in struct {
		Category         string `json:"category"`
		Difficulty       string `json:"difficulty"`
		QuestionCount    int    `json:"questionCount"`
		TimeLimitMinutes int    `json:"timeLimitMinutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	available, err := h.bank.Count(in.Category, in.Difficulty)
	if err != nil {
		writeErr(w, http.StatusNotFound, err.Error())
		return
	}
	if err := ValidateSetup(in.QuestionCount, available, in.TimeLimitMinutes); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	questions, err := h.bank.Questions(in.Category, in.Difficulty, in.QuestionCount)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to select questions")
		return
	}

	a := NewAttempt(u.UserID)
	if err := a.ChooseCategory(in.Category); err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to start attempt")
		return
	}
	if err := a.ChooseDifficulty(in.Difficulty); err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to start attempt")
		return
	}
	if err := a.Start(questions, minutes(in.TimeLimitMinutes), h.clock.Now()); err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to start attempt")
		return
	}

	h.attempts.Put(a)
	writeJSON(w, http.StatusOK, h.view(a))
}

// GET /quiz/attempts/current
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	a, ok := h.currentAttempt(r)
	if !ok {
		writeErr(w, http.StatusNotFound, "no active attempt")
		return
	}
	writeJSON(w, http.StatusOK, h.view(a))
}

// POST /quiz/attempts/current/answer
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	a, ok := h.currentAttempt(r)
	if !ok {
		writeErr(w, http.StatusNotFound, "no active attempt")
		return
	}

	var in struct {
		Index  int    `json:"index"`
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	applied, err := a.SubmitAnswer(in.Index, in.Answer, h.clock.Now())
	if err != nil {
		if errors.Is(err, ErrCompleted) {
			writeErr(w, http.StatusConflict, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, "failed to record answer")
		return
	}

	out := map[string]any{
		"applied": applied,
		"attempt": h.view(a),
	}
	if applied {
		last := a.Answers[len(a.Answers)-1]
		out["feedback"] = map[string]any{
			"isCorrect": last.IsCorrect,
			"correct":   last.Correct,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// DELETE /quiz/attempts/current
func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.attempts.Delete(u.UserID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GET /quiz/attempts/current/result
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	a, ok := h.currentAttempt(r)
	if !ok {
		writeErr(w, http.StatusNotFound, "no active attempt")
		return
	}
	a.ExpireIfDue(h.clock.Now())

	res, err := a.Result()
	if err != nil {
		writeErr(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) currentAttempt(r *http.Request) (*Attempt, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return h.attempts.Get(u.UserID)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
