package repository

import (
	"context"
	"errors"

	"storefront-api/internal/tag/domain"
)

var (
	// ErrDuplicateName is returned when a store already has a tag with the same name.
	ErrDuplicateName = errors.New("tag name already exists in store")

	// ErrTagInUse is returned when deleting a tag that is still linked to items.
	ErrTagInUse = errors.New("tag is linked to items")

	// ErrStoreMissing is returned when creating a tag for a store that does not exist.
	ErrStoreMissing = errors.New("store does not exist")
)

type Repository interface {
	// GetByID returns the tag for id, or nil if not found.
	GetByID(ctx context.Context, id int64) (*domain.Tag, error)

	// ListByStore returns the tags belonging to the given store.
	ListByStore(ctx context.Context, storeID int64) ([]*domain.Tag, error)

	// ListByItem returns the tags linked to the given item.
	ListByItem(ctx context.Context, itemID int64) ([]*domain.Tag, error)

	// Create persists the tag and fills in its id.
	Create(ctx context.Context, t *domain.Tag) error

	// Delete removes the tag. It fails with ErrTagInUse while item links remain.
	Delete(ctx context.Context, id int64) error

	// LinkItem associates the item with the tag. Linking twice is a no-op.
	LinkItem(ctx context.Context, itemID, tagID int64) error

	// UnlinkItem removes the association between the item and the tag.
	UnlinkItem(ctx context.Context, itemID, tagID int64) error
}
