package repository

import (
	"context"

	"storefront-api/internal/audit/domain"
)

// Repository defines persistence for audit entries.
type Repository interface {
	Create(ctx context.Context, e *domain.Entry) error
	// ListByUser returns entries for the given user, newest first, paginated by limit and offset.
	ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*domain.Entry, error)
}
