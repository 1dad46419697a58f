// Package repository defines the storage interfaces implemented by the
// concrete backends in subpackages.
package repository

import (
	"context"

	"github.com/pupaakdev/userd/internal/model"
)

// UserRepository is the user directory: all persistence of User records
// goes through this interface.
//
// Lookup methods return apperror.ErrNotFound (wrapped) when no record
// matches. Create and Update return apperror.ErrConflict when a uniqueness
// constraint on username, email, or external id is violated; the store's
// constraints are the authoritative duplicate guard, not any preceding
// read in application code.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.User, error)
}
