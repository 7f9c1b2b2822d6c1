package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"storefront-api/internal/item/domain"
)

const pgForeignKeyViolation = "23503"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an item repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all items ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Item, error) {
	const query = `SELECT id, name, price, store_id FROM items ORDER BY id`
	return r.queryItems(ctx, query)
}

// GetByID returns the item for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	const query = `SELECT id, name, price, store_id FROM items WHERE id = $1`

	i := &domain.Item{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&i.ID, &i.Name, &i.Price, &i.StoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

// ListByStore returns the items belonging to the given store, ordered by id.
func (r *PostgresRepository) ListByStore(ctx context.Context, storeID int64) ([]*domain.Item, error) {
	const query = `SELECT id, name, price, store_id FROM items WHERE store_id = $1 ORDER BY id`
	return r.queryItems(ctx, query, storeID)
}

// ListByTag returns the items linked to the given tag, ordered by id.
func (r *PostgresRepository) ListByTag(ctx context.Context, tagID int64) ([]*domain.Item, error) {
	const query = `
		SELECT i.id, i.name, i.price, i.store_id
		FROM items i
		JOIN items_tags it ON it.item_id = i.id
		WHERE it.tag_id = $1
		ORDER BY i.id`
	return r.queryItems(ctx, query, tagID)
}

// Create persists the item and fills in the database-assigned id.
// A foreign key violation on store_id maps to ErrStoreMissing.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Item) error {
	const query = `INSERT INTO items (name, price, store_id) VALUES ($1, $2, $3) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, i.Name, i.Price, i.StoreID).Scan(&i.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrStoreMissing
		}
		return err
	}
	return nil
}

// Update rewrites the item's name and price. Updating a missing item is not an error.
func (r *PostgresRepository) Update(ctx context.Context, i *domain.Item) error {
	const query = `UPDATE items SET name = $2, price = $3 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, i.ID, i.Name, i.Price)
	return err
}

// Delete removes the item. Its tag links cascade at the schema level.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM items WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepository) queryItems(ctx context.Context, query string, args ...any) ([]*domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Item
	for rows.Next() {
		i := &domain.Item{}
		if err := rows.Scan(&i.ID, &i.Name, &i.Price, &i.StoreID); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
