// Package repo defines the record repository contract every persistence
// backend implements.
//
// Every backend generates record IDs client-side as UUIDs, orders items by
// SKU, locations by name and users by username, reports updates and deletes
// of unknown IDs as apperr.ErrNotFound, and clears location_id on items that
// reference a deleted location.
package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/erazemk/gudang/internal/model"
)

// Repository provides CRUD over the four record collections.
type Repository interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	InsertItem(ctx context.Context, item model.Item) (*model.Item, error)
	UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error)
	DeleteItem(ctx context.Context, id string) error

	ListLocations(ctx context.Context) ([]model.Location, error)
	InsertLocation(ctx context.Context, loc model.Location) (*model.Location, error)
	UpdateLocation(ctx context.Context, id string, patch model.LocationPatch) (*model.Location, error)
	DeleteLocation(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]model.User, error)
	InsertUser(ctx context.Context, user model.User) (*model.User, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error

	// GetBranding returns nil when no branding has been stored.
	GetBranding(ctx context.Context) (*model.Branding, error)
	PutBranding(ctx context.Context, b model.Branding) error

	Driver() string
	Close() error
}

// SecretStore is implemented by backends that can persist the session
// signing key.
type SecretStore interface {
	JWTSecret(ctx context.Context) (string, error)
}

// NewID returns a new record ID.
func NewID() string {
	return uuid.NewString()
}
