package user

import (
	"fmt"
	"log/slog"

	userDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/user"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	GetByID(userID int64) (*userDatamodel.User, error)
	GetByEmail(email string) (*userDatamodel.User, error)
	Create(u *userDatamodel.User) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetByID(userID int64) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return FromDataModel(u), nil
}

// EnsureUser creates an active user with the given password unless the email
// is already registered. It reports whether a user was created.
func (s *Service) EnsureUser(email, name, password string) (bool, error) {
	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.Create(&userDatamodel.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		IsActive:     true,
	}); err != nil {
		return false, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("UserService: user created", "email", email)
	return true, nil
}
