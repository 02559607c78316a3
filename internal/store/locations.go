package store

import (
	"context"

	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/repo"
)

// ListLocations returns all locations ordered by name.
func (s *Store) ListLocations(ctx context.Context) ([]model.Location, error) {
	locs := []model.Location{}
	if err := s.db.SelectContext(ctx, &locs, `SELECT id, code, name FROM locations ORDER BY name`); err != nil {
		return nil, fail("listing locations", err)
	}
	return locs, nil
}

// GetLocation returns a location by ID.
func (s *Store) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	loc := &model.Location{}
	err := s.db.GetContext(ctx, loc, s.db.Rebind(`SELECT id, code, name FROM locations WHERE id = ?`), id)
	if err != nil {
		return nil, fail("getting location", err)
	}
	return loc, nil
}

// InsertLocation creates a new location with a generated ID.
func (s *Store) InsertLocation(ctx context.Context, loc model.Location) (*model.Location, error) {
	loc.ID = repo.NewID()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO locations (id, code, name) VALUES (?, ?, ?)`),
		loc.ID, loc.Code, loc.Name,
	)
	if err != nil {
		return nil, fail("creating location", err)
	}
	return &loc, nil
}

// UpdateLocation applies a partial update to a location.
func (s *Store) UpdateLocation(ctx context.Context, id string, patch model.LocationPatch) (*model.Location, error) {
	var set setList
	if patch.Code != nil {
		set.add("code", *patch.Code)
	}
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}

	if !set.empty() {
		if err := s.updateByID(ctx, s.db, "locations", id, set); err != nil {
			return nil, fail("updating location", err)
		}
	}
	return s.GetLocation(ctx, id)
}

// DeleteLocation deletes a location and clears it from every item that
// referenced it.
func (s *Store) DeleteLocation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fail("beginning transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.db.Rebind(`UPDATE items SET location_id = NULL WHERE location_id = ?`), id)
	if err != nil {
		return fail("clearing item locations", err)
	}

	if err := s.deleteByID(ctx, tx, "locations", id); err != nil {
		return fail("deleting location", err)
	}

	if err := tx.Commit(); err != nil {
		return fail("committing location delete", err)
	}
	return nil
}
