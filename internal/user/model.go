package user

import "time"

// User is one account record as persisted in users.json. PasswordHash holds a
// bcrypt hash; the plaintext password never touches disk.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"password"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Patch describes a partial update. Nil fields are left unchanged.
type Patch struct {
	Name     *string
	Login    *string
	Password *string
	IsAdmin  *bool
}

// Default administrator seeded into an empty store so a fresh install is
// never locked out.
const (
	DefaultAdminID       = "default-admin"
	DefaultAdminName     = "Administrator"
	DefaultAdminLogin    = "admin@rcs.uz"
	DefaultAdminPassword = "adminrcs2025"
)
