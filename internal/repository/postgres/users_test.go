package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/models"
	"github.com/akitada/filedepot/internal/testutil"
)

// Insert a user inside the test transaction. Tokens and items reference
// users, so most repo tests need one.
func createTestUser(t *testing.T, tx pgx.Tx, email string) models.User {
	t.Helper()

	repo := UserRepo{DB: tx}
	user, err := repo.CreateUser(t.Context(), "test user", email, "hashed-password")
	require.NoError(t, err, "Error happened when creating test user")
	return user
}

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			got, err := repo.CreateUser(t.Context(), "nk", "nk@example.com", "hash")

			require.NoError(t, err)
			require.NotEmpty(t, got.ID, "ID is assigned by the database")
			require.Equal(t, "nk", got.Name)
			require.Equal(t, "nk@example.com", got.Email)
			require.Equal(t, "hash", got.PasswordHash)
			require.False(t, got.CreatedAt.IsZero())
		})
	})

	t.Run("duplicate email", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			_, err := repo.CreateUser(t.Context(), "nk", "nk@example.com", "hash")
			require.NoError(t, err)

			_, err = repo.CreateUser(t.Context(), "other", "nk@example.com", "hash2")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("get by id and by email", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}
			created, err := repo.CreateUser(t.Context(), "nk", "nk@example.com", "hash")
			require.NoError(t, err)

			byID, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, byID.ID)

			byEmail, err := repo.GetUserByEmail(t.Context(), "nk@example.com")
			require.NoError(t, err)
			assert.Equal(t, created.ID, byEmail.ID)
		})
	})

	t.Run("not existed user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.GetUserByEmail(t.Context(), "nobody@example.com")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}
