package repository

import (
	"context"
	"database/sql"

	"storefront-api/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit entry repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the entry. The entry must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Entry) error {
	const query = `
		INSERT INTO audit_entries (id, user_id, action, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	uid := sql.NullInt64{Int64: e.UserID, Valid: e.UserID != 0}
	meta := sql.NullString{String: e.Metadata, Valid: e.Metadata != ""}
	_, err := r.db.ExecContext(ctx, query, e.ID, uid, e.Action, e.IP, meta, e.CreatedAt)
	return err
}

// ListByUser returns entries for the given user, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*domain.Entry, error) {
	const query = `
		SELECT id, user_id, action, ip, metadata, created_at
		FROM audit_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		e := &domain.Entry{}
		var uid sql.NullInt64
		var meta sql.NullString
		if err := rows.Scan(&e.ID, &uid, &e.Action, &e.IP, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = uid.Int64
		e.Metadata = meta.String
		out = append(out, e)
	}
	return out, rows.Err()
}
