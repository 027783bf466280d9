package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/models"
)

// memTokenRepo mimics the postgres repo semantics in memory: unique
// values on save, COALESCE-style revocation.
type memTokenRepo struct {
	byValue map[string]models.AccessToken

	// errors returned by the next Save calls, consumed one by one
	saveErrs []error
	saves    int
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{byValue: map[string]models.AccessToken{}}
}

func (r *memTokenRepo) Save(_ context.Context, token models.AccessToken) (models.AccessToken, error) {
	r.saves++
	if len(r.saveErrs) > 0 {
		err := r.saveErrs[0]
		r.saveErrs = r.saveErrs[1:]
		if err != nil {
			return models.AccessToken{}, err
		}
	}

	if _, exists := r.byValue[token.Token]; exists {
		return models.AccessToken{}, apperrors.ErrTokenValueTaken
	}
	r.byValue[token.Token] = token
	return token, nil
}

func (r *memTokenRepo) GetByValue(_ context.Context, value string) (models.AccessToken, error) {
	token, ok := r.byValue[value]
	if !ok {
		return models.AccessToken{}, apperrors.ErrTokenNotFound
	}
	return token, nil
}

func (r *memTokenRepo) Revoke(_ context.Context, value string) (time.Time, error) {
	token, ok := r.byValue[value]
	if !ok {
		return time.Time{}, apperrors.ErrTokenNotFound
	}
	if token.RevokedAt == nil {
		now := time.Now()
		token.RevokedAt = &now
		r.byValue[value] = token
	}
	return *token.RevokedAt, nil
}

// clock is adjustable wall time for expiry simulation
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock(at string) *clock { return &clock{now: mustParseTime(at)} }

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func newTestService(t *testing.T, repo *memTokenRepo, clk *clock) *Service {
	t.Helper()
	s, err := NewService(Config{Now: clk.Now}, repo)
	require.NoError(t, err)
	return s
}

func Test_Service_Issue(t *testing.T) {
	userID := uuid.New()

	t.Run("defaults when nothing requested", func(t *testing.T) {
		repo := newMemTokenRepo()
		clk := newClock("2024-01-01 12:00:00Z")
		s := newTestService(t, repo, clk)

		token, err := s.Issue(t.Context(), userID, IssueOptions{})

		require.NoError(t, err)
		assert.Equal(t, "READ WRITE", token.Scope)
		assert.Equal(t, 3600, token.ExpiresIn)
		assert.Equal(t, userID, token.UserID)
		assert.Equal(t, clk.now, token.CreatedAt)
		assert.Nil(t, token.RevokedAt)
		assert.True(t, models.ValidTokenValue(token.Token), "generated value %q must satisfy the token format", token.Token)
	})

	t.Run("requested scope is granted verbatim", func(t *testing.T) {
		repo := newMemTokenRepo()
		s := newTestService(t, repo, newClock("2024-01-01 12:00:00Z"))

		token, err := s.Issue(t.Context(), userID, IssueOptions{Scope: "READ"})

		require.NoError(t, err)
		assert.Equal(t, "READ", token.Scope)
	})

	t.Run("scope grammar violations", func(t *testing.T) {
		repo := newMemTokenRepo()
		s := newTestService(t, repo, newClock("2024-01-01 12:00:00Z"))

		for _, scope := range []string{"foo", "read", "READ READ", "READ,WRITE"} {
			_, err := s.Issue(t.Context(), userID, IssueOptions{Scope: scope})

			require.Errorf(t, err, "scope %q must be rejected", scope)
			assert.ErrorIs(t, err, apperrors.ErrScopeInvalid)
		}
		assert.Zero(t, repo.saves, "nothing must be persisted for invalid scopes")
	})

	t.Run("negative expires_in is rejected, zero is not", func(t *testing.T) {
		repo := newMemTokenRepo()
		s := newTestService(t, repo, newClock("2024-01-01 12:00:00Z"))

		negative := -1
		_, err := s.Issue(t.Context(), userID, IssueOptions{ExpiresIn: &negative})
		assert.ErrorIs(t, err, apperrors.ErrExpiresInInvalid)

		zero := 0
		token, err := s.Issue(t.Context(), userID, IssueOptions{ExpiresIn: &zero})
		require.NoError(t, err)
		assert.Equal(t, 0, token.ExpiresIn)
	})

	t.Run("value collision is retried with a fresh value", func(t *testing.T) {
		repo := newMemTokenRepo()
		repo.saveErrs = []error{apperrors.ErrTokenValueTaken, apperrors.ErrTokenValueTaken}
		s := newTestService(t, repo, newClock("2024-01-01 12:00:00Z"))

		token, err := s.Issue(t.Context(), userID, IssueOptions{})

		require.NoError(t, err, "collisions must be retried, not surfaced")
		assert.Equal(t, 3, repo.saves)
		assert.True(t, models.ValidTokenValue(token.Token))
	})

	t.Run("issuance gives up after repeated collisions", func(t *testing.T) {
		repo := newMemTokenRepo()
		repo.saveErrs = []error{apperrors.ErrTokenValueTaken, apperrors.ErrTokenValueTaken, apperrors.ErrTokenValueTaken}
		s := newTestService(t, repo, newClock("2024-01-01 12:00:00Z"))

		_, err := s.Issue(t.Context(), userID, IssueOptions{})

		assert.ErrorIs(t, err, apperrors.ErrTokenValueTaken)
	})

	t.Run("repo faults are not retried", func(t *testing.T) {
		repo := newMemTokenRepo()
		repo.saveErrs = []error{fmt.Errorf("db error: connection lost")}
		s := newTestService(t, repo, newClock("2024-01-01 12:00:00Z"))

		_, err := s.Issue(t.Context(), userID, IssueOptions{})

		require.Error(t, err)
		assert.Equal(t, 1, repo.saves)
	})

	t.Run("two issued tokens never share a value", func(t *testing.T) {
		repo := newMemTokenRepo()
		s := newTestService(t, repo, newClock("2024-01-01 12:00:00Z"))

		first, err := s.Issue(t.Context(), userID, IssueOptions{})
		require.NoError(t, err)
		second, err := s.Issue(t.Context(), userID, IssueOptions{})
		require.NoError(t, err)

		assert.NotEqual(t, first.Token, second.Token)
	})
}

func Test_Service_Authenticate(t *testing.T) {
	userID := uuid.New()

	issue := func(t *testing.T, s *Service, opts IssueOptions) models.AccessToken {
		t.Helper()
		token, err := s.Issue(t.Context(), userID, opts)
		require.NoError(t, err)
		return token
	}

	t.Run("live token resolves to its record", func(t *testing.T) {
		repo := newMemTokenRepo()
		clk := newClock("2024-01-01 12:00:00Z")
		s := newTestService(t, repo, clk)
		issued := issue(t, s, IssueOptions{})

		got, err := s.Authenticate(t.Context(), issued.Token)

		require.NoError(t, err)
		assert.Equal(t, issued.UserID, got.UserID)
		assert.Equal(t, issued.Scope, got.Scope)
	})

	t.Run("empty value is a protocol error", func(t *testing.T) {
		s := newTestService(t, newMemTokenRepo(), newClock("2024-01-01 12:00:00Z"))

		_, err := s.Authenticate(t.Context(), "")

		assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("unknown, revoked and expired are indistinguishable", func(t *testing.T) {
		repo := newMemTokenRepo()
		clk := newClock("2024-01-01 12:00:00Z")
		s := newTestService(t, repo, clk)

		revoked := issue(t, s, IssueOptions{})
		require.NoError(t, s.Revoke(t.Context(), revoked.Token))

		shortLived := issue(t, s, IssueOptions{ExpiresIn: intp(60)})
		clk.Advance(61 * time.Second)

		for name, value := range map[string]string{
			"unknown": "neverIssuedValue012345678901234567/A",
			"revoked": revoked.Token,
			"expired": shortLived.Token,
		} {
			_, err := s.Authenticate(t.Context(), value)

			require.Errorf(t, err, "case %q must fail", name)
			assert.ErrorIsf(t, err, apperrors.ErrTokenInvalid, "case %q must surface as the uniform invalid-token error", name)
		}
	})

	t.Run("expiry boundary is inclusive", func(t *testing.T) {
		repo := newMemTokenRepo()
		clk := newClock("2024-01-01 12:00:00Z")
		s := newTestService(t, repo, clk)
		token := issue(t, s, IssueOptions{ExpiresIn: intp(60)})

		clk.Advance(60*time.Second - time.Nanosecond)
		_, err := s.Authenticate(t.Context(), token.Token)
		require.NoError(t, err, "must be valid strictly before the boundary")

		clk.Advance(time.Nanosecond)
		_, err = s.Authenticate(t.Context(), token.Token)
		assert.ErrorIs(t, err, apperrors.ErrTokenInvalid, "the boundary instant itself counts as expired")
	})

	t.Run("zero expires_in is valid only at the instant of issuance", func(t *testing.T) {
		repo := newMemTokenRepo()
		clk := newClock("2024-01-01 12:00:00Z")
		s := newTestService(t, repo, clk)
		token := issue(t, s, IssueOptions{ExpiresIn: intp(0)})

		_, err := s.Authenticate(t.Context(), token.Token)
		require.NoError(t, err, "valid at the instant of issuance")

		clk.Advance(time.Nanosecond)
		_, err = s.Authenticate(t.Context(), token.Token)
		assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})
}

func Test_Service_Authorize(t *testing.T) {
	s := newTestService(t, newMemTokenRepo(), newClock("2024-01-01 12:00:00Z"))

	t.Run("scopes are flat in both directions", func(t *testing.T) {
		readOnly := models.AccessToken{Scope: "READ"}
		writeOnly := models.AccessToken{Scope: "WRITE"}

		assert.NoError(t, s.Authorize(readOnly, models.ScopeRead))
		assert.ErrorIs(t, s.Authorize(readOnly, models.ScopeWrite), apperrors.ErrInsufficientScope)
		assert.NoError(t, s.Authorize(writeOnly, models.ScopeWrite))
		assert.ErrorIs(t, s.Authorize(writeOnly, models.ScopeRead), apperrors.ErrInsufficientScope)
	})

	t.Run("full scope covers both", func(t *testing.T) {
		token := models.AccessToken{Scope: "READ WRITE"}

		assert.NoError(t, s.Authorize(token, models.ScopeRead))
		assert.NoError(t, s.Authorize(token, models.ScopeWrite))
	})
}

func Test_Service_Revoke(t *testing.T) {
	userID := uuid.New()

	t.Run("revocation is permanent and idempotent", func(t *testing.T) {
		repo := newMemTokenRepo()
		clk := newClock("2024-01-01 12:00:00Z")
		s := newTestService(t, repo, clk)

		token, err := s.Issue(t.Context(), userID, IssueOptions{})
		require.NoError(t, err)

		require.NoError(t, s.Revoke(t.Context(), token.Token))
		first := *repo.byValue[token.Token].RevokedAt

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, s.Revoke(t.Context(), token.Token), "second revoke must succeed")
		second := *repo.byValue[token.Token].RevokedAt

		assert.Equal(t, first, second, "revoked_at must not move on repeat revocation")
	})

	t.Run("unknown value", func(t *testing.T) {
		s := newTestService(t, newMemTokenRepo(), newClock("2024-01-01 12:00:00Z"))

		err := s.Revoke(t.Context(), "neverIssuedValue012345678901234567/A")

		assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	})
}

func intp(v int) *int { return &v }
