// Package auth verifies credentials against the user store and issues signed
// session tokens carried in an HTTP-only cookie.
package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rcsquiz/internal/httpmw"
	"rcsquiz/internal/user"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const cookieName = "auth-token"

// AuthUser is the verified identity attached to authenticated requests.
type AuthUser struct {
	UserID  string `json:"userId"`
	Login   string `json:"login"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

type Service struct {
	users  *user.FileRepo
	tokens *TokenService
	logger *log.Logger

	// nil means decide per request (TLS or X-Forwarded-Proto).
	cookieSecure *bool
	limiter      *loginLimiter
}

type ServiceOptions struct {
	Users              *user.FileRepo
	Tokens             *TokenService
	Logger             *log.Logger
	CookieSecure       *bool
	LoginRatePerMinute int
	LoginBurst         int
}

func NewService(opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.LoginRatePerMinute <= 0 {
		opts.LoginRatePerMinute = 10
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}
	return &Service{
		users:        opts.Users,
		tokens:       opts.Tokens,
		logger:       opts.Logger,
		cookieSecure: opts.CookieSecure,
		limiter:      newLoginLimiter(opts.LoginRatePerMinute, opts.LoginBurst),
	}
}

// Login checks the password against the stored bcrypt hash and issues a
// session token. Unknown logins and wrong passwords are indistinguishable
// to the caller.
func (s *Service) Login(login, password string, now time.Time) (user.User, string, time.Time, error) {
	u, ok, err := s.users.FindByLogin(login)
	if err != nil {
		return user.User{}, "", time.Time{}, err
	}
	if !ok {
		return user.User{}, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return user.User{}, "", time.Time{}, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Generate(u, now)
	if err != nil {
		return user.User{}, "", time.Time{}, err
	}
	s.logger.Printf("[auth] issued session for %q (expires %s)", u.Login, exp.Format(time.RFC3339))
	return u, token, exp, nil
}

// AuthenticateRequest verifies the session cookie, if any.
func (s *Service) AuthenticateRequest(r *http.Request) (AuthUser, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return AuthUser{}, false
	}
	claims, err := s.tokens.Parse(cookie.Value)
	if err != nil {
		return AuthUser{}, false
	}
	return AuthUser{
		UserID:  claims.UserID,
		Login:   claims.Login,
		Name:    claims.Name,
		IsAdmin: claims.IsAdmin,
	}, true
}

// AllowLogin reports whether this client may attempt a login right now.
func (s *Service) AllowLogin(r *http.Request) bool {
	return s.limiter.allow(httpmw.ClientIP(r))
}

func (s *Service) useSecureCookie(r *http.Request) bool {
	if s.cookieSecure != nil {
		return *s.cookieSecure
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func (s *Service) SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.useSecureCookie(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Service) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.useSecureCookie(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

// RequireUser rejects requests without a valid session.
func (s *Service) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.AuthenticateRequest(r)
		if !ok {
			unauthorized(w, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserContext(r.Context(), u)))
	})
}

// RequireAdmin additionally demands the admin flag; non-admin sessions get
// a 403.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.AuthenticateRequest(r)
		if !ok {
			unauthorized(w, "unauthorized")
			return
		}
		if !u.IsAdmin {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "admin access required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserContext(r.Context(), u)))
	})
}
