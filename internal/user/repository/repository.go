package repository

import (
	"context"
	"errors"

	"storefront-api/internal/user/domain"
)

// ErrDuplicateUsername is returned by Create when the username is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create persists the user and assigns its id. Returns ErrDuplicateUsername
	// when the username is taken.
	Create(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
}
