package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/akitada/filedepot/internal/apperrors"
	"github.com/akitada/filedepot/internal/models"
	"github.com/akitada/filedepot/internal/repository"
)

type ItemRepo struct {
	DB DBTX
}

const createItem = `-- name: CreateItem
INSERT INTO items (id, user_id, name, description, filename, content, byte_size)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, name, description, filename, content, byte_size, created_at, updated_at
`

func (r *ItemRepo) Create(ctx context.Context, item models.Item) (models.Item, error) {
	rows, _ := r.DB.Query(ctx, createItem,
		item.ID, item.UserID, item.Name, item.Description, item.Filename, item.Content, item.ByteSize,
	)
	created, err := pgx.CollectOneRow(rows, rowToItem)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, fmt.Errorf("repo error: %w", apperrors.ErrItemNameTaken)
		}
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getItemByID = `-- name: GetItemByID
SELECT id, user_id, name, description, filename, content, byte_size, created_at, updated_at
FROM items
WHERE user_id = $1 AND id = $2
`

func (r *ItemRepo) GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (models.Item, error) {
	rows, _ := r.DB.Query(ctx, getItemByID, userID, id)
	return collectItem(rows)
}

// Sort keys are interpolated from a fixed table, never from user input
// directly; unknown keys fall back to created_at.
var orderByColumns = map[string]string{
	repository.OrderByID:          "id",
	repository.OrderByName:        "name",
	repository.OrderByDescription: "description",
	repository.OrderBySize:        "byte_size",
	repository.OrderByCreatedAt:   "created_at",
	repository.OrderByUpdatedAt:   "updated_at",
}

const listItems = `-- name: ListItems
SELECT id, user_id, name, description, filename, content, byte_size, created_at, updated_at
FROM items
WHERE user_id = $1
ORDER BY %s %s
LIMIT $2 OFFSET $3
`

func (r *ItemRepo) List(ctx context.Context, userID uuid.UUID, opts repository.ListItemsOptions) ([]models.Item, error) {
	column, ok := orderByColumns[opts.OrderBy]
	if !ok {
		column = "created_at"
	}

	direction := "ASC"
	if opts.Descending {
		direction = "DESC"
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	per := opts.Per
	if per < 1 {
		per = 20
	}

	query := fmt.Sprintf(listItems, column, direction)
	rows, _ := r.DB.Query(ctx, query, userID, per, (page-1)*per)
	items, err := pgx.CollectRows(rows, rowToItem)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

const updateItem = `-- name: UpdateItem
UPDATE items
SET name = $3, description = $4, filename = $5, content = $6, byte_size = $7, updated_at = now()
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, name, description, filename, content, byte_size, created_at, updated_at
`

func (r *ItemRepo) Update(ctx context.Context, item models.Item) (models.Item, error) {
	rows, _ := r.DB.Query(ctx, updateItem,
		item.UserID, item.ID, item.Name, item.Description, item.Filename, item.Content, item.ByteSize,
	)
	updated, err := pgx.CollectOneRow(rows, rowToItem)

	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return updated, fmt.Errorf("repo error: %w", apperrors.ErrItemNotFound)
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return updated, fmt.Errorf("repo error: %w", apperrors.ErrItemNameTaken)
		}
		return updated, fmt.Errorf("db error: %w", err)
	}
}

const deleteItem = `-- name: DeleteItem
DELETE FROM items
WHERE user_id = $1 AND id = $2
`

func (r *ItemRepo) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteItem, userID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrItemNotFound)
	}

	return nil
}

func collectItem(rows pgx.Rows) (models.Item, error) {
	item, err := pgx.CollectOneRow(rows, rowToItem)

	switch {
	case err == nil:
		return item, nil
	case errors.Is(err, pgx.ErrNoRows):
		return item, fmt.Errorf("repo error: %w", apperrors.ErrItemNotFound)
	default:
		return item, fmt.Errorf("db error: %w", err)
	}
}

func rowToItem(row pgx.CollectableRow) (models.Item, error) {
	var i models.Item
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Description, &i.Filename, &i.Content, &i.ByteSize, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}
