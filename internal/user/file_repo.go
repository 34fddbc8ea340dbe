package user

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrDuplicateLogin = errors.New("login already exists")

// FileRepo persists the user collection as a JSON array in users.json.
// Every mutation is a full read-modify-write cycle under the repo mutex, so
// concurrent writers cannot lose interleaved updates. Writes go through a
// temp file and rename so a failed write never leaves a partial collection.
type FileRepo struct {
	mu    sync.RWMutex
	path  string
	users []User
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := &FileRepo{path: filepath.Join(dataDir, "users.json")}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.users = nil
			return nil
		}
		return err
	}
	var loaded []User
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	r.users = loaded
	return nil
}

func (r *FileRepo) saveLocked() error {
	b, err := json.MarshalIndent(r.users, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// seedDefaultAdminLocked guarantees an empty store gains exactly one
// administrator. Idempotent: a non-empty collection is left alone.
func (r *FileRepo) seedDefaultAdminLocked() error {
	if len(r.users) > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	r.users = []User{{
		ID:           DefaultAdminID,
		Name:         DefaultAdminName,
		Login:        DefaultAdminLogin,
		PasswordHash: string(hash),
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	}}
	return r.saveLocked()
}

// List returns all users. On first access with an empty backing store it
// synthesizes and persists the default administrator.
func (r *FileRepo) List() ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.seedDefaultAdminLocked(); err != nil {
		return nil, err
	}
	out := make([]User, len(r.users))
	copy(out, r.users)
	return out, nil
}

// Count reports the raw collection size without triggering the bootstrap.
// The setup gate relies on this to see a genuinely empty store.
func (r *FileRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// FindByLogin looks a user up by exact (case-sensitive) login.
func (r *FileRepo) FindByLogin(login string) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.seedDefaultAdminLocked(); err != nil {
		return User{}, false, err
	}
	for _, u := range r.users {
		if u.Login == login {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

// Create adds a new user with a bcrypt-hashed password and a unique id.
// Fails with ErrDuplicateLogin when the login is already taken.
func (r *FileRepo) Create(name, login, password string, isAdmin bool) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.seedDefaultAdminLocked(); err != nil {
		return User{}, err
	}
	for _, u := range r.users {
		if u.Login == login {
			return User{}, ErrDuplicateLogin
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Login:        login,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	r.users = append(r.users, u)
	if err := r.saveLocked(); err != nil {
		return User{}, err
	}
	return u, nil
}

// CreateFirst is the setup path: it writes the very first account as an
// administrator without seeding the default one.
func (r *FileRepo) CreateFirst(name, login, password string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Login:        login,
		PasswordHash: string(hash),
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	}
	r.users = append(r.users, u)
	if err := r.saveLocked(); err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete removes the user with the given id. Missing ids are a no-op.
func (r *FileRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.users[:0]
	removed := false
	for _, u := range r.users {
		if u.ID == id {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	r.users = kept
	if !removed {
		return nil
	}
	return r.saveLocked()
}

// Update applies a partial update. A password in the patch is re-hashed
// before storage. An absent id yields ok=false, not an error.
func (r *FileRepo) Update(id string, p Patch) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.ID != id {
			continue
		}
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.Login != nil {
			u.Login = *p.Login
		}
		if p.IsAdmin != nil {
			u.IsAdmin = *p.IsAdmin
		}
		if p.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*p.Password), bcrypt.DefaultCost)
			if err != nil {
				return User{}, false, err
			}
			u.PasswordHash = string(hash)
		}
		r.users[i] = u
		if err := r.saveLocked(); err != nil {
			return User{}, false, err
		}
		return u, true, nil
	}
	return User{}, false, nil
}
