package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rcsquiz/internal/config"
	"rcsquiz/internal/quiz"
	"rcsquiz/internal/serverapp"
	"rcsquiz/internal/user"
)

type testApp struct {
	t       *testing.T
	handler http.Handler
	clock   *quiz.FakeClock
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dataDir := t.TempDir()
	writeTestBank(t, dataDir)

	t.Setenv("QUIZ_JWT_SECRET", "integration-test-secret-0123456789abcdef")
	t.Setenv("QUIZ_DATA_DIR", dataDir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	clock := quiz.NewFakeClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	handler, err := serverapp.NewHandler(serverapp.Options{
		Config: cfg,
		Logger: log.New(io.Discard, "", 0),
		Clock:  clock,
	})
	if err != nil {
		t.Fatalf("build server: %v", err)
	}

	return &testApp{
		t:       t,
		handler: handler,
		clock:   clock,
		cookies: map[string]*http.Cookie{},
	}
}

func writeTestBank(t *testing.T, dataDir string) {
	t.Helper()
	bank := map[string]any{
		"categories": []map[string]any{
			{
				"category": "general",
				"difficulty_levels": map[string]any{
					"easy": []map[string]string{
						{"question": "g1", "true_answer": "r1", "answer_1": "w1", "answer_2": "w2", "answer_3": "w3"},
						{"question": "g2", "true_answer": "r2", "answer_1": "w1", "answer_2": "w2", "answer_3": "w3"},
						{"question": "g3", "true_answer": "r3", "answer_1": "w1", "answer_2": "w2", "answer_3": "w3"},
						{"question": "g4", "true_answer": "r4", "answer_1": "w1", "answer_2": "w2", "answer_3": "w3"},
					},
				},
			},
		},
	}
	b, err := json.Marshal(bank)
	if err != nil {
		t.Fatalf("marshal bank: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "questions.json"), b, 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}
}

func (a *testApp) request(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(a.cookies, c.Name)
			continue
		}
		a.cookies[c.Name] = c
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, rec.Body.String())
	}
	return out
}

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/quiz/categories", "/quiz/questions", "/admin/users", "/auth/verify"} {
		res := app.request(http.MethodGet, path, nil)
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, res.Code)
		}
	}
}

func TestServer_DefaultAdminLoginAndVerify(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodPost, "/login", map[string]any{
		"login":    user.DefaultAdminLogin,
		"password": user.DefaultAdminPassword,
	})
	if res.Code != http.StatusOK {
		t.Fatalf("login expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	login := decode[struct {
		Success bool   `json:"success"`
		IsAdmin bool   `json:"isAdmin"`
		Name    string `json:"name"`
	}](t, res)
	if !login.Success || !login.IsAdmin || login.Name != user.DefaultAdminName {
		t.Fatalf("unexpected login payload: %+v", login)
	}

	verify := app.request(http.MethodGet, "/auth/verify", nil)
	if verify.Code != http.StatusOK {
		t.Fatalf("verify expected 200, got %d", verify.Code)
	}
	identity := decode[struct {
		UserID  string `json:"userId"`
		Login   string `json:"login"`
		IsAdmin bool   `json:"isAdmin"`
	}](t, verify)
	if identity.Login != user.DefaultAdminLogin || !identity.IsAdmin {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestServer_BadCredentialsRejected(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodPost, "/login", map[string]any{
		"login":    user.DefaultAdminLogin,
		"password": "wrong-password",
	})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestServer_SetupGateAfterBootstrap(t *testing.T) {
	app := newTestApp(t)

	// Logging in bootstraps the default admin, so setup is closed.
	app.request(http.MethodPost, "/login", map[string]any{
		"login":    user.DefaultAdminLogin,
		"password": user.DefaultAdminPassword,
	})

	res := app.request(http.MethodPost, "/setup", map[string]any{
		"name": "Late", "login": "late@example.com", "password": "latepass",
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", res.Code, res.Body.String())
	}
}

func TestServer_AdminUserManagementFlow(t *testing.T) {
	app := newTestApp(t)
	app.mustLoginDefaultAdmin()

	create := app.request(http.MethodPost, "/admin/users", map[string]any{
		"name": "Student", "login": "student@example.com", "password": "student1",
	})
	if create.Code != http.StatusOK {
		t.Fatalf("create expected 200, got %d body=%s", create.Code, create.Body.String())
	}
	created := decode[struct {
		User struct {
			ID      string `json:"id"`
			IsAdmin bool   `json:"isAdmin"`
		} `json:"user"`
	}](t, create)
	if created.User.IsAdmin {
		t.Fatalf("expected non-admin by default")
	}

	list := app.request(http.MethodGet, "/admin/users", nil)
	users := decode[struct {
		Users []map[string]any `json:"users"`
	}](t, list)
	if len(users.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users.Users))
	}

	del := app.request(http.MethodDelete, "/admin/users/"+created.User.ID, nil)
	if del.Code != http.StatusOK {
		t.Fatalf("delete expected 200, got %d", del.Code)
	}
	// Deleting again is idempotent.
	if del := app.request(http.MethodDelete, "/admin/users/"+created.User.ID, nil); del.Code != http.StatusOK {
		t.Fatalf("repeat delete expected 200, got %d", del.Code)
	}
}

func TestServer_NonAdminForbiddenFromAdminRoutes(t *testing.T) {
	app := newTestApp(t)
	app.mustLoginDefaultAdmin()

	app.request(http.MethodPost, "/admin/users", map[string]any{
		"name": "Student", "login": "student@example.com", "password": "student1",
	})
	app.request(http.MethodPost, "/logout", nil)

	login := app.request(http.MethodPost, "/login", map[string]any{
		"login": "student@example.com", "password": "student1",
	})
	if login.Code != http.StatusOK {
		t.Fatalf("student login expected 200, got %d", login.Code)
	}

	res := app.request(http.MethodGet, "/admin/users", nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", res.Code)
	}
}

func TestServer_QuestionEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.mustLoginDefaultAdmin()

	cats := app.request(http.MethodGet, "/quiz/categories", nil)
	if cats.Code != http.StatusOK {
		t.Fatalf("categories expected 200, got %d", cats.Code)
	}
	meta := decode[struct {
		Categories []struct {
			Category     string         `json:"category"`
			Difficulties []string       `json:"difficulty_levels"`
			Counts       map[string]int `json:"question_counts"`
		} `json:"categories"`
	}](t, cats)
	if len(meta.Categories) != 1 || meta.Categories[0].Counts["easy"] != 4 {
		t.Fatalf("unexpected categories payload: %+v", meta)
	}

	count := app.request(http.MethodGet, "/quiz/questions?category=general&difficulty=easy&count=true", nil)
	c := decode[struct {
		Count int `json:"count"`
	}](t, count)
	if c.Count != 4 {
		t.Fatalf("expected count 4, got %d", c.Count)
	}

	sample := app.request(http.MethodGet, "/quiz/questions?category=general&difficulty=easy&count=2", nil)
	qs := decode[struct {
		Questions []map[string]string `json:"questions"`
	}](t, sample)
	if len(qs.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs.Questions))
	}

	missing := app.request(http.MethodGet, "/quiz/questions?category=nope&difficulty=easy", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", missing.Code)
	}
}

func TestServer_AttemptLifecycle(t *testing.T) {
	app := newTestApp(t)
	app.mustLoginDefaultAdmin()

	start := app.request(http.MethodPost, "/quiz/attempts", map[string]any{
		"category": "general", "difficulty": "easy", "questionCount": 3, "timeLimitMinutes": 5,
	})
	if start.Code != http.StatusOK {
		t.Fatalf("start expected 200, got %d body=%s", start.Code, start.Body.String())
	}

	type attemptView struct {
		State            string `json:"state"`
		Answered         int    `json:"answered"`
		Score            int    `json:"score"`
		RemainingSeconds int    `json:"remainingSeconds"`
		Question         *struct {
			Index   int      `json:"index"`
			Total   int      `json:"total"`
			Answers []string `json:"answers"`
		} `json:"question"`
	}

	view := decode[attemptView](t, start)
	if view.State != "in_progress" || view.Question == nil || view.Question.Total != 3 {
		t.Fatalf("unexpected start view: %+v", view)
	}
	if len(view.Question.Answers) != 4 {
		t.Fatalf("expected 4 shuffled answers, got %d", len(view.Question.Answers))
	}

	for i := 0; i < 3; i++ {
		cur := decode[attemptView](t, app.request(http.MethodGet, "/quiz/attempts/current", nil))
		if cur.Question == nil {
			t.Fatalf("expected a question at index %d", i)
		}
		res := app.request(http.MethodPost, "/quiz/attempts/current/answer", map[string]any{
			"index": i, "answer": cur.Question.Answers[0],
		})
		if res.Code != http.StatusOK {
			t.Fatalf("answer %d expected 200, got %d body=%s", i, res.Code, res.Body.String())
		}
	}

	result := app.request(http.MethodGet, "/quiz/attempts/current/result", nil)
	if result.Code != http.StatusOK {
		t.Fatalf("result expected 200, got %d body=%s", result.Code, result.Body.String())
	}
	final := decode[struct {
		Answered   int     `json:"answered"`
		Score      int     `json:"score"`
		Percentage float64 `json:"percentage"`
		Band       string  `json:"band"`
	}](t, result)
	if final.Answered != 3 || final.Score < 0 || final.Score > 3 {
		t.Fatalf("unexpected result: %+v", final)
	}
	if final.Band == "" {
		t.Fatalf("expected a performance band")
	}
}

func TestServer_AttemptTimeout(t *testing.T) {
	app := newTestApp(t)
	app.mustLoginDefaultAdmin()

	start := app.request(http.MethodPost, "/quiz/attempts", map[string]any{
		"category": "general", "difficulty": "easy", "questionCount": 4, "timeLimitMinutes": 1,
	})
	if start.Code != http.StatusOK {
		t.Fatalf("start expected 200, got %d", start.Code)
	}

	// Answer one question, then run the clock out.
	cur := app.request(http.MethodGet, "/quiz/attempts/current", nil)
	view := decode[struct {
		Question *struct {
			Answers []string `json:"answers"`
		} `json:"question"`
	}](t, cur)
	app.request(http.MethodPost, "/quiz/attempts/current/answer", map[string]any{
		"index": 0, "answer": view.Question.Answers[0],
	})

	app.clock.Advance(2 * time.Minute)

	result := app.request(http.MethodGet, "/quiz/attempts/current/result", nil)
	if result.Code != http.StatusOK {
		t.Fatalf("result after timeout expected 200, got %d body=%s", result.Code, result.Body.String())
	}
	final := decode[struct {
		Answered      int `json:"answered"`
		Score         int `json:"score"`
		QuestionCount int `json:"questionCount"`
	}](t, result)
	if final.Answered != 1 || final.Answered >= final.QuestionCount {
		t.Fatalf("expected partial answers after timeout: %+v", final)
	}
	if final.Score > final.Answered {
		t.Fatalf("score %d exceeds answered %d", final.Score, final.Answered)
	}
}

func TestServer_InvalidSetupRejected(t *testing.T) {
	app := newTestApp(t)
	app.mustLoginDefaultAdmin()

	res := app.request(http.MethodPost, "/quiz/attempts", map[string]any{
		"category": "general", "difficulty": "easy", "questionCount": 99, "timeLimitMinutes": 5,
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("oversized count expected 400, got %d", res.Code)
	}

	res = app.request(http.MethodPost, "/quiz/attempts", map[string]any{
		"category": "general", "difficulty": "easy", "questionCount": 2, "timeLimitMinutes": 500,
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("oversized time limit expected 400, got %d", res.Code)
	}
}

func TestServer_Healthz(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodGet, "/healthz", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", res.Code)
	}
	ready := app.request(http.MethodGet, "/readyz", nil)
	if ready.Code != http.StatusOK {
		t.Fatalf("readyz expected 200, got %d", ready.Code)
	}
}

func (a *testApp) mustLoginDefaultAdmin() {
	a.t.Helper()
	res := a.request(http.MethodPost, "/login", map[string]any{
		"login":    user.DefaultAdminLogin,
		"password": user.DefaultAdminPassword,
	})
	if res.Code != http.StatusOK {
		a.t.Fatalf("default admin login failed: %d body=%s", res.Code, res.Body.String())
	}
}
