package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/tokenstall/internal/model"
)

// UserRepository provides access to marketplace accounts.
type UserRepository interface {
	// Create inserts a new account.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByUsername loads an account by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}
