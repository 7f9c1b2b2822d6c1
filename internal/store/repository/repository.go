package repository

import (
	"context"
	"errors"

	"storefront-api/internal/store/domain"
)

// ErrDuplicateName is returned by Create when a store with that name exists.
var ErrDuplicateName = errors.New("store name already exists")

// Repository defines persistence for stores.
type Repository interface {
	List(ctx context.Context) ([]*domain.Store, error)
	GetByID(ctx context.Context, id int64) (*domain.Store, error)
	// Create persists the store and assigns its id. Returns ErrDuplicateName
	// when the name is taken.
	Create(ctx context.Context, s *domain.Store) error
	// Delete removes the store; its items are removed with it.
	Delete(ctx context.Context, id int64) error
}
