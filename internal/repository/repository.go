package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/akitada/filedepot/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If a user with the same email exists must return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, name string, email string, passwordHash string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// AccessToken repository interface
type AccessTokenRepo interface {
	// Persist a freshly issued token
	// The token value has a unique index; on collision must return
	// apperrors.ErrTokenValueTaken so the issuer can retry with a new value
	Save(ctx context.Context, token models.AccessToken) (models.AccessToken, error)

	// Look the token up by its exact, case-sensitive value
	// Returns the record even if revoked or expired; validity is the
	// caller's decision. Unknown value: apperrors.ErrTokenNotFound
	GetByValue(ctx context.Context, value string) (models.AccessToken, error)

	// Set revoked_at if it is still null. Idempotent and race-safe:
	// a second call (concurrent or not) keeps the first timestamp and
	// succeeds. Unknown value: apperrors.ErrTokenNotFound
	Revoke(ctx context.Context, value string) (revokedAt time.Time, err error)
}

// Sort keys accepted by ListItems. Anything else falls back to created_at.
const (
	OrderByID          = "id"
	OrderByName        = "name"
	OrderByDescription = "description"
	OrderBySize        = "size"
	OrderByCreatedAt   = "created_at"
	OrderByUpdatedAt   = "updated_at"
)

type ListItemsOptions struct {
	Page       int    // 1-based, defaults to 1
	Per        int    // page size, defaults to 20
	OrderBy    string // one of the OrderBy* keys
	Descending bool
}

// Item repository interface. Every operation is scoped to the owning
// user; other users' items behave as if they do not exist.
type ItemRepo interface {
	// If the user already has an item with the same name must return apperrors.ErrItemNameTaken
	Create(ctx context.Context, item models.Item) (models.Item, error)

	// If not found (or owned by someone else) must return apperrors.ErrItemNotFound
	GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Item, error)

	List(ctx context.Context, userID uuid.UUID, opts ListItemsOptions) ([]models.Item, error)

	Update(ctx context.Context, item models.Item) (models.Item, error)

	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}
