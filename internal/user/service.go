package user

import (
	"errors"
	"log"
	"strings"
)

var (
	ErrMissingFields    = errors.New("name, login and password are required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrSetupCompleted   = errors.New("Setup already completed")
)

const minPasswordLength = 6

// Service wraps the repo with the validation rules of the admin surface.
type Service struct {
	repo   *FileRepo
	logger *log.Logger
}

func NewService(repo *FileRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func validateInput(name, login, password string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(login) == "" || password == "" {
		return ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *Service) List() ([]User, error) {
	return s.repo.List()
}

func (s *Service) Create(name, login, password string, isAdmin bool) (User, error) {
	if err := validateInput(name, login, password); err != nil {
		return User{}, err
	}
	u, err := s.repo.Create(name, login, password, isAdmin)
	if err != nil {
		return User{}, err
	}
	s.logger.Printf("[user] created %q (admin=%v)", u.Login, u.IsAdmin)
	return u, nil
}

func (s *Service) Delete(id string) error {
	return s.repo.Delete(id)
}

func (s *Service) Update(id string, p Patch) (User, bool, error) {
	if p.Password != nil && len(*p.Password) < minPasswordLength {
		return User{}, false, ErrPasswordTooShort
	}
	return s.repo.Update(id, p)
}

// SetupFirstAdmin bootstraps the first administrator account. It is a
// one-time gate: any existing user, including the seeded default admin,
// means setup has already happened.
func (s *Service) SetupFirstAdmin(name, login, password string) (User, error) {
	if s.repo.Count() > 0 {
		return User{}, ErrSetupCompleted
	}
	if err := validateInput(name, login, password); err != nil {
		return User{}, err
	}
	u, err := s.repo.CreateFirst(name, login, password)
	if err != nil {
		return User{}, err
	}
	s.logger.Printf("[user] setup created first admin %q", u.Login)
	return u, nil
}
