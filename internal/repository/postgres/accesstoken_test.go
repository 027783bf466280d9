package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/models"
	"github.com/akitada/filedepot/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_AccessTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	makeToken := func(userID uuid.UUID) models.AccessToken {
		return models.AccessToken{
			ID:        uuid.New(),
			UserID:    userID,
			Token:     "Wai9eeVie2Aemahwah5eeW2j",
			Scope:     "READ WRITE",
			ExpiresIn: 3600,
			CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
			RevokedAt: nil,
		}
	}

	t.Run("save token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, tx, "tokens@example.com")
			repo := AccessTokenRepo{DB: tx}
			token := makeToken(user.ID)

			got, err := repo.Save(t.Context(), token)

			require.NoError(t, err)
			require.Equal(t, token.ID, got.ID)
			require.Equal(t, token.UserID, got.UserID)
			require.Equal(t, token.Token, got.Token)
			require.Equal(t, token.Scope, got.Scope)
			require.Equal(t, token.ExpiresIn, got.ExpiresIn)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, time.Microsecond)
			require.Nil(t, got.RevokedAt, "RevokedAt should be nil for a fresh token")
		})
	})

	t.Run("duplicate token value", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, tx, "tokens@example.com")
			repo := AccessTokenRepo{DB: tx}
			token := makeToken(user.ID)
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			second := makeToken(user.ID) // new ID, same value
			_, err = repo.Save(t.Context(), second)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrTokenValueTaken)
		})
	})

	t.Run("get token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, tx, "tokens@example.com")
			repo := AccessTokenRepo{DB: tx}
			token := makeToken(user.ID)
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.GetByValue(t.Context(), token.Token)

			require.NoError(t, err)
			require.Equal(t, token.Token, got.Token)
			require.Equal(t, token.UserID, got.UserID)
			require.Equal(t, token.Scope, got.Scope)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, 0)
			require.Nil(t, got.RevokedAt)
		})
	})

	t.Run("lookup is byte-exact", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, tx, "tokens@example.com")
			repo := AccessTokenRepo{DB: tx}
			token := makeToken(user.ID)
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			_, err = repo.GetByValue(t.Context(), "wai9eeVie2Aemahwah5eeW2j")

			require.Error(t, err, "a case-flipped value must not match")
			assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
		})
	})

	t.Run("not existed token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := AccessTokenRepo{DB: tx}

			_, err := repo.GetByValue(t.Context(), "neverIssuedTokenValue123")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
		})
	})

	t.Run("revoke token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, tx, "tokens@example.com")
			repo := AccessTokenRepo{DB: tx}
			token := makeToken(user.ID)
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			revokedAt, err := repo.Revoke(t.Context(), token.Token)

			require.NoError(t, err)
			require.WithinDuration(t, time.Now(), revokedAt, 50*time.Millisecond)

			got, err := repo.GetByValue(t.Context(), token.Token)
			require.NoError(t, err, "revoked token is still readable, only marked")
			require.NotNil(t, got.RevokedAt)
		})
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createTestUser(t, tx, "tokens@example.com")
			repo := AccessTokenRepo{DB: tx}
			token := makeToken(user.ID)
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			first, err := repo.Revoke(t.Context(), token.Token)
			require.NoError(t, err)

			time.Sleep(100 * time.Millisecond)
			second, err := repo.Revoke(t.Context(), token.Token)
			require.NoError(t, err, "revoking twice is not an error")

			assert.WithinDuration(t, first, second, 0, "the first revocation timestamp must stick")
		})
	})

	t.Run("revoke not existed token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := AccessTokenRepo{DB: tx}

			_, err := repo.Revoke(t.Context(), "neverIssuedTokenValue123")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
		})
	})
}
