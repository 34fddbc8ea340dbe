// Package serverapp assembles the repositories, services and routes into a
// single http.Handler.
package serverapp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"rcsquiz/internal/auth"
	"rcsquiz/internal/config"
	"rcsquiz/internal/httpmw"
	"rcsquiz/internal/question"
	"rcsquiz/internal/quiz"
	"rcsquiz/internal/user"
)

type Options struct {
	Config *config.Config
	Logger *log.Logger
	// Clock drives quiz attempt timers; nil means wall clock.
	Clock quiz.Clock
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	cfg := opts.Config

	userRepo, err := user.NewFileRepo(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	bank, err := question.NewBank(filepath.Join(cfg.DataDir, "questions.json"))
	if err != nil {
		return nil, err
	}

	userService := user.NewService(userRepo, opts.Logger)
	authService := auth.NewService(auth.ServiceOptions{
		Users:              userRepo,
		Tokens:             auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL()),
		Logger:             opts.Logger,
		CookieSecure:       cfg.CookieSecure,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginBurst:         cfg.LoginBurst,
	})

	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(userService)
	questionHandler := question.NewHandler(bank)
	quizHandler := quiz.NewHandler(bank, quiz.NewMemoryRepo(), opts.Clock)

	r := chi.NewRouter()
	r.Use(
		httpmw.WithRequestID,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRecover(opts.Logger),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "rcsquiz",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := userRepo.List(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "user storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "rcsquiz",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)
	r.Get("/auth/verify", authHandler.Verify)
	r.Post("/setup", userHandler.Setup)

	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authService.RequireAdmin)
		r.Get("/", userHandler.List)
		r.Post("/", userHandler.Create)
		r.Delete("/{id}", userHandler.Delete)
	})

	r.Route("/quiz", func(r chi.Router) {
		r.Use(authService.RequireUser)
		r.Get("/categories", questionHandler.Categories)
		r.Get("/questions", questionHandler.Questions)
		r.Post("/attempts", quizHandler.Start)
		r.Get("/attempts/current", quizHandler.Current)
		r.Post("/attempts/current/answer", quizHandler.Answer)
		r.Delete("/attempts/current", quizHandler.Abandon)
		r.Get("/attempts/current/result", quizHandler.Result)
	})

	return r, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
