// Package transfer moves records in and out of the controller: CSV item
// imports and full JSON backups.
package transfer

import (
	"context"
	"errors"

	"github.com/erazemk/gudang/internal/inventory"
	"github.com/erazemk/gudang/internal/model"
)

// Writer is the part of the controller imports and restores write through.
type Writer interface {
	Locations() []model.Location
	AddItem(ctx context.Context, item model.Item) (*model.Item, error)
	AddLocation(ctx context.Context, loc model.Location) (*model.Location, error)
	ImportUser(ctx context.Context, user model.User) (*model.User, error)
	UpdateBranding(ctx context.Context, patch model.BrandingPatch) (model.Branding, error)
}

// RowError describes one record that could not be written.
type RowError struct {
	Line  int    `json:"line,omitempty"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
}

// Report summarises an import or restore.
type Report struct {
	Items     int        `json:"items"`
	Locations int        `json:"locations"`
	Users     int        `json:"users"`
	Skipped   []RowError `json:"skipped,omitempty"`
}

// written strips a stale-refresh error: the record was stored and the next
// refresh will pick it up.
func written(err error) error {
	var stale *inventory.StaleError
	if errors.As(err, &stale) {
		return nil
	}
	return err
}

func locationsByCode(locs []model.Location) map[string]model.Location {
	m := make(map[string]model.Location, len(locs))
	for _, l := range locs {
		m[model.NormalizeCode(l.Code)] = l
	}
	return m
}
