package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/models"
	"github.com/akitada/filedepot/internal/repository"
	"github.com/akitada/filedepot/internal/service/auth"
)

type Service struct {
	hasher auth.PasswordHasher
	users  repository.UserRepo
}

func NewService(hasher auth.PasswordHasher, users repository.UserRepo) *Service {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &Service{
		hasher: hasher,
		users:  users,
	}
}

// Register creates a user. Emails are stored lowercased so lookups
// are case-insensitive without a functional index.
func (s *Service) Register(ctx context.Context, name string, email string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.users.CreateUser(ctx, name, strings.ToLower(email), hash)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Authenticate resolves credentials to a user, or ErrUserNotFound.
// Unknown emails and wrong passwords are reported identically.
func (s *Service) Authenticate(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Still burn a compare so the timing doesn't reveal
			// whether the email exists.
			_ = s.hasher.Compare(notFoundHash, password)
			return models.User{}, apperrors.ErrUserNotFound
		}
		return models.User{}, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *Service) GetByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// A well-formed bcrypt hash that matches no password, used to equalize
// response time for unknown emails.
const notFoundHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B4S8iY9O0p3rE5bqmN4vQeKXhC1u"
