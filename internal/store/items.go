package store

import (
	"context"

	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/repo"
)

const itemColumns = `id, sku, name, category, COALESCE(location_id, '') AS location_id, stock, COALESCE(photo_url, '') AS photo_url`

// ListItems returns all items ordered by SKU.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	if err := s.db.SelectContext(ctx, &items, `SELECT `+itemColumns+` FROM items ORDER BY sku`); err != nil {
		return nil, fail("listing items", err)
	}
	return items, nil
}

// GetItem returns an item by ID.
func (s *Store) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item := &model.Item{}
	err := s.db.GetContext(ctx, item, s.db.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	if err != nil {
		return nil, fail("getting item", err)
	}
	return item, nil
}

// InsertItem creates a new item with a generated ID.
func (s *Store) InsertItem(ctx context.Context, item model.Item) (*model.Item, error) {
	item.ID = repo.NewID()
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO items (id, sku, name, category, location_id, stock, photo_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		item.ID, item.SKU, item.Name, item.Category, nullString(item.LocationID), item.Stock, nullString(item.PhotoURL),
	)
	if err != nil {
		return nil, fail("creating item", err)
	}
	return &item, nil
}

// UpdateItem applies a partial update to an item.
func (s *Store) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	var set setList
	if patch.SKU != nil {
		set.add("sku", *patch.SKU)
	}
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.Category != nil {
		set.add("category", *patch.Category)
	}
	if patch.LocationID != nil {
		set.add("location_id", nullString(*patch.LocationID))
	}
	if patch.Stock != nil {
		set.add("stock", *patch.Stock)
	}
	if patch.PhotoURL != nil {
		set.add("photo_url", nullString(*patch.PhotoURL))
	}

	if !set.empty() {
		if err := s.updateByID(ctx, s.db, "items", id, set); err != nil {
			return nil, fail("updating item", err)
		}
	}
	return s.GetItem(ctx, id)
}

// DeleteItem deletes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if err := s.deleteByID(ctx, s.db, "items", id); err != nil {
		return fail("deleting item", err)
	}
	return nil
}
