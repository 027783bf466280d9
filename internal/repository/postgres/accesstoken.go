package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/models"
)

type AccessTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveAccessToken
INSERT INTO access_tokens (id, user_id, token, scope, expires_in, created_at, revoked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, token, scope, expires_in, created_at, revoked_at
`

func (r *AccessTokenRepo) Save(ctx context.Context, token models.AccessToken) (models.AccessToken, error) {
	rows, _ := r.DB.Query(ctx, saveToken,
		token.ID, token.UserID, token.Token, token.Scope, token.ExpiresIn, token.CreatedAt, token.RevokedAt,
	)
	saved, err := pgx.CollectOneRow(rows, rowToAccessToken)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return saved, fmt.Errorf("repo error: %w", apperrors.ErrTokenValueTaken)
		}
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const getToken = `-- name: GetAccessTokenByValue
SELECT id, user_id, token, scope, expires_in, created_at, revoked_at
FROM access_tokens
WHERE token = $1
`

// GetByValue returns the record whatever its state; deciding whether a
// revoked or expired token is acceptable is up to the caller. The
// lookup is byte-exact, values are never case-normalized.
func (r *AccessTokenRepo) GetByValue(ctx context.Context, value string) (models.AccessToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, value)
	token, err := pgx.CollectOneRow(rows, rowToAccessToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeAccessToken
UPDATE access_tokens
SET revoked_at = COALESCE(revoked_at, $2)
WHERE token = $1
RETURNING revoked_at
`

// Revoke sets revoked_at once; repeated or concurrent calls keep the
// first timestamp. The COALESCE makes the null-to-timestamp transition
// atomic, so two racing revokes both succeed with the same result.
func (r *AccessTokenRepo) Revoke(ctx context.Context, value string) (time.Time, error) {
	rows, _ := r.DB.Query(ctx, revokeToken, value, time.Now())
	revokedAt, err := pgx.CollectOneRow(rows, pgx.RowTo[time.Time])

	switch {
	case err == nil:
		return revokedAt, nil
	case errors.Is(err, pgx.ErrNoRows):
		return revokedAt, fmt.Errorf("repo error: %w", apperrors.ErrTokenNotFound)
	default:
		return revokedAt, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccessToken(row pgx.CollectableRow) (models.AccessToken, error) {
	var t models.AccessToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.Scope, &t.ExpiresIn, &t.CreatedAt, &t.RevokedAt)
	return t, err
}
