// Package repository defines the persistence interfaces consumed by the
// service layer. The sqlite subpackage provides the concrete implementation;
// tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/adeolu/marketplace/internal/model"
)

// ItemFilter narrows a listing query. Empty fields match everything; set
// fields match as case-insensitive substrings.
type ItemFilter struct {
	Location string
	Name     string
}

type UserRepository interface {
	// Create inserts a user and fills in ID and timestamps. Returns
	// apperror.ErrConflict if the email is already registered.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Delete removes the user row. Owned item rows go with it — the
	// users→items foreign key is declared ON DELETE CASCADE, and the
	// service removes the image blobs before calling this.
	Delete(ctx context.Context, id int64) error
}

type ItemRepository interface {
	// Create inserts an item and fills in ID and timestamps.
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id int64) (*model.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]model.Item, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Item, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id int64) error
}
