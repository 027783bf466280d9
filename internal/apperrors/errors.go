package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Auth pipeline outcomes. Unknown, revoked and expired tokens all
	// collapse into ErrTokenInvalid so callers can't tell which tokens
	// ever existed.
	ErrInvalidRequest    = errors.New("credential missing or malformed")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrInsufficientScope = errors.New("token lacks required scope")

	// Token issuance failures
	ErrScopeInvalid     = errors.New("scope does not match grammar")
	ErrExpiresInInvalid = errors.New("expires_in must be non-negative")
	ErrTokenValueTaken  = errors.New("token value already exists")
	ErrTokenNotFound    = errors.New("token not found")

	ErrItemNotFound  = errors.New("file not found")
	ErrItemNameTaken = errors.New("file name already exists for this user")
)
