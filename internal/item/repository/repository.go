package repository

import (
	"context"
	"errors"

	"storefront-api/internal/item/domain"
)

// ErrStoreMissing is returned by Create when the referenced store does not exist.
var ErrStoreMissing = errors.New("store does not exist")

// Repository defines persistence for items.
type Repository interface {
	List(ctx context.Context) ([]*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	ListByStore(ctx context.Context, storeID int64) ([]*domain.Item, error)
	// ListByTag returns the items linked to the given tag.
	ListByTag(ctx context.Context, tagID int64) ([]*domain.Item, error)
	// Create persists the item and assigns its id. Returns ErrStoreMissing
	// when the referenced store does not exist.
	Create(ctx context.Context, i *domain.Item) error
	// Update rewrites the item's name and price.
	Update(ctx context.Context, i *domain.Item) error
	Delete(ctx context.Context, id int64) error
}
