package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"storefront-api/internal/tag/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a tag repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the tag for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Tag, error) {
	const query = `SELECT id, name, store_id FROM tags WHERE id = $1`

	t := &domain.Tag{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.StoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// ListByStore returns the tags belonging to the given store, ordered by id.
func (r *PostgresRepository) ListByStore(ctx context.Context, storeID int64) ([]*domain.Tag, error) {
	const query = `SELECT id, name, store_id FROM tags WHERE store_id = $1 ORDER BY id`
	return r.queryTags(ctx, query, storeID)
}

// ListByItem returns the tags linked to the given item, ordered by id.
func (r *PostgresRepository) ListByItem(ctx context.Context, itemID int64) ([]*domain.Tag, error) {
	const query = `
		SELECT t.id, t.name, t.store_id
		FROM tags t
		JOIN items_tags it ON it.tag_id = t.id
		WHERE it.item_id = $1
		ORDER BY t.id`
	return r.queryTags(ctx, query, itemID)
}

// Create persists the tag and fills in its id. A duplicate name within the
// same store maps to ErrDuplicateName; a missing store maps to ErrStoreMissing.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Tag) error {
	const query = `INSERT INTO tags (name, store_id) VALUES ($1, $2) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, t.Name, t.StoreID).Scan(&t.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return ErrDuplicateName
			case pgForeignKeyViolation:
				return ErrStoreMissing
			}
		}
		return err
	}
	return nil
}

// Delete removes the tag. It fails with ErrTagInUse while item links remain.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	const (
		countQuery  = `SELECT COUNT(*) FROM items_tags WHERE tag_id = $1`
		deleteQuery = `DELETE FROM tags WHERE id = $1`
	)

	var links int
	if err := r.db.QueryRowContext(ctx, countQuery, id).Scan(&links); err != nil {
		return err
	}
	if links > 0 {
		return ErrTagInUse
	}

	_, err := r.db.ExecContext(ctx, deleteQuery, id)
	return err
}

// LinkItem associates the item with the tag. Linking twice is a no-op.
func (r *PostgresRepository) LinkItem(ctx context.Context, itemID, tagID int64) error {
	const query = `INSERT INTO items_tags (item_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, itemID, tagID)
	return err
}

// UnlinkItem removes the association between the item and the tag.
func (r *PostgresRepository) UnlinkItem(ctx context.Context, itemID, tagID int64) error {
	const query = `DELETE FROM items_tags WHERE item_id = $1 AND tag_id = $2`

	_, err := r.db.ExecContext(ctx, query, itemID, tagID)
	return err
}

func (r *PostgresRepository) queryTags(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Tag
	for rows.Next() {
		t := &domain.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.StoreID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
