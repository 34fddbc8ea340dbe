// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinJWTSecretLength is the minimum required length for the token signing
// secret. HS256 secrets shorter than this are trivially brute-forceable.
const MinJWTSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DataDir    string `env:"QUIZ_DATA_DIR" envDefault:"./data"`
	ServerHost string `env:"QUIZ_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"QUIZ_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"QUIZ_ENV" envDefault:"development"`

	// JWTSecret signs session tokens. Never hardcoded; generate one with:
	// openssl rand -base64 32
	JWTSecret     string `env:"QUIZ_JWT_SECRET,required"`
	TokenTTLHours int    `env:"QUIZ_TOKEN_TTL_HOURS" envDefault:"24"`

	// CookieSecure forces the Secure attribute on the session cookie.
	// When unset the server decides per request (TLS or forwarded proto).
	CookieSecure *bool `env:"QUIZ_COOKIE_SECURE"`

	// Login throttling, per client IP.
	LoginRatePerMinute int `env:"QUIZ_LOGIN_RATE_PER_MIN" envDefault:"10"`
	LoginBurst         int `env:"QUIZ_LOGIN_BURST" envDefault:"5"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// TokenTTL returns the session token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("QUIZ_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}
	if cfg.TokenTTLHours <= 0 {
		return nil, fmt.Errorf("QUIZ_TOKEN_TTL_HOURS must be positive, got %d", cfg.TokenTTLHours)
	}
	if cfg.LoginRatePerMinute <= 0 || cfg.LoginBurst <= 0 {
		return nil, fmt.Errorf("login rate limit settings must be positive")
	}

	return cfg, nil
}
