package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"storefront-api/internal/store/domain"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a store repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all stores ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Store, error) {
	const query = `SELECT id, name FROM stores ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Store
	for rows.Next() {
		s := &domain.Store{}
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns the store for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Store, error) {
	const query = `SELECT id, name FROM stores WHERE id = $1`

	s := &domain.Store{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// Create persists the store and fills in the database-assigned id.
// A unique constraint violation on name maps to ErrDuplicateName.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Store) error {
	const query = `INSERT INTO stores (name) VALUES ($1) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, s.Name).Scan(&s.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// Delete removes the store. Items and tags cascade at the schema level.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM stores WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
