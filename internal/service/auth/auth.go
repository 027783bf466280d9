package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/models"
	"github.com/akitada/filedepot/internal/repository"
)

// Attempts to persist a freshly generated value before giving up.
// A unique-index collision on 16 random bytes is astronomically rare;
// more than one retry in a row points at a broken entropy source.
const maxIssueAttempts = 3

type Config struct {
	// Override the wall clock, used by tests to simulate expiry
	Now func() time.Time

	// Generate token values, defaults to GenerateTokenValue
	GenerateValue func() string
}

// Service owns the access-token lifecycle: issuance from a granted
// credential, per-request validation and explicit revocation.
type Service struct {
	tokens        repository.AccessTokenRepo
	now           func() time.Time
	generateValue func() string
}

func NewService(cfg Config, tokens repository.AccessTokenRepo) (*Service, error) {
	if tokens == nil {
		return nil, errors.New("token repo must not be nil")
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.GenerateValue == nil {
		cfg.GenerateValue = GenerateTokenValue
	}

	return &Service{
		tokens:        tokens,
		now:           cfg.Now,
		generateValue: cfg.GenerateValue,
	}, nil
}

type IssueOptions struct {
	// Scope to grant, defaults to "READ WRITE"
	Scope string

	// Lifetime in seconds, defaults to 3600. Zero is allowed and means
	// the token expires the instant after issuance.
	ExpiresIn *int
}

// Issue validates the requested grant options, persists a new token
// and returns it. This is the only path that creates tokens.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, opts IssueOptions) (models.AccessToken, error) {
	scope := opts.Scope
	if scope == "" {
		scope = models.DefaultScope
	}
	if !models.ValidScope(scope) {
		return models.AccessToken{}, fmt.Errorf("issue: %w", apperrors.ErrScopeInvalid)
	}

	expiresIn := models.DefaultExpiresIn
	if opts.ExpiresIn != nil {
		expiresIn = *opts.ExpiresIn
	}
	if expiresIn < 0 {
		return models.AccessToken{}, fmt.Errorf("issue: %w", apperrors.ErrExpiresInInvalid)
	}

	token := models.AccessToken{
		UserID:    userID,
		Scope:     scope,
		ExpiresIn: expiresIn,
		CreatedAt: s.now().Truncate(time.Second),
	}

	// Value collisions surface as unique violations from the store and
	// are retried with a fresh value rather than bubbled to the client.
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token.ID = uuid.New()
		token.Token = s.generateValue()

		saved, err := s.tokens.Save(ctx, token)
		switch {
		case err == nil:
			return saved, nil
		case errors.Is(err, apperrors.ErrTokenValueTaken):
			continue
		default:
			return models.AccessToken{}, fmt.Errorf("issue: %w", err)
		}
	}

	return models.AccessToken{}, fmt.Errorf("issue: %w after %d attempts", apperrors.ErrTokenValueTaken, maxIssueAttempts)
}

// Authenticate resolves a presented token value to a live record.
//
// Fails with ErrInvalidRequest for an absent value (a client protocol
// error) and with ErrTokenInvalid for everything else: unknown,
// revoked and expired values are deliberately indistinguishable so
// responses don't reveal which tokens ever existed.
func (s *Service) Authenticate(ctx context.Context, value string) (models.AccessToken, error) {
	if value == "" {
		return models.AccessToken{}, fmt.Errorf("authenticate: %w", apperrors.ErrInvalidRequest)
	}

	token, err := s.tokens.GetByValue(ctx, value)
	switch {
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return models.AccessToken{}, fmt.Errorf("authenticate: %w", apperrors.ErrTokenInvalid)
	case err != nil:
		return models.AccessToken{}, fmt.Errorf("authenticate: %w", err)
	}

	if token.Revoked() || token.Expired(s.now()) {
		return models.AccessToken{}, fmt.Errorf("authenticate: %w", apperrors.ErrTokenInvalid)
	}

	return token, nil
}

// Authorize checks the validated token against the scope an endpoint
// requires. Scopes are flat; a WRITE-only token is denied READ.
func (s *Service) Authorize(token models.AccessToken, required models.Scope) error {
	if !token.Authorized(required) {
		return fmt.Errorf("authorize: %w", apperrors.ErrInsufficientScope)
	}
	return nil
}

// Revoke invalidates the token with the given value. Idempotent: the
// first call fixes revoked_at, later calls succeed without changing
// it. Unknown values return ErrTokenNotFound.
//
// Knowing the value is the only requirement; the call is deliberately
// not authenticated by the token itself.
func (s *Service) Revoke(ctx context.Context, value string) error {
	_, err := s.tokens.Revoke(ctx, value)
	if err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	return nil
}
