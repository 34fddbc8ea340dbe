package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"rcsquiz/internal/user"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the session token payload: the identity fields plus the
// standard issued-at/expiry claims. Verification is purely cryptographic
// and never consults the credential store, so a deleted user's token stays
// valid until it expires. Accepted trade-off of the stateless design.
type Claims struct {
	UserID  string `json:"userId"`
	Login   string `json:"login"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Generate signs a token for the user, valid for the configured TTL.
func (s *TokenService) Generate(u user.User, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.ttl)
	claims := &Claims{
		UserID:  u.ID,
		Login:   u.Login,
		Name:    u.Name,
		IsAdmin: u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies the signature and expiry and returns the claims.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
