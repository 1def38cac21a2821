package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/dbx"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/google/uuid"
)

// preallocRows bounds the capacity hint; limit comes from the client.
const preallocRows = 100

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const itemColumns = `id, title, description, owner_id, created_at, updated_at`

func scanItem(s interface{ Scan(...any) error }) (*models.Item, error) {
	it := &models.Item{}
	var description sql.NullString
	if err := s.Scan(&it.ID, &it.Title, &description, &it.OwnerID, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		it.Description = &description.String
	}
	return it, nil
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	query :=
		`INSERT INTO items (id, title, description, owner_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, item.ID, item.Title, item.Description, item.OwnerID).
		Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		// owner vanished between the auth check and the insert
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) query(ctx context.Context, limit int, query string, args ...any) ([]models.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Item, 0, min(limit, preallocRows))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at, id OFFSET $1 LIMIT $2`
	return r.query(ctx, limit, query, offset, limit)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3`
	return r.query(ctx, limit, query, ownerID, offset, limit)
}

func (r *PostgresRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM items`)
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM items WHERE owner_id = $1`, ownerID)
}

func (r *PostgresRepository) Update(ctx context.Context, item *models.Item) (*models.Item, error) {
	query :=
		`UPDATE items SET title = $2, description = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, item.ID, item.Title, item.Description).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// DeleteByOwner removes every item of ownerID and reports how many went.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
