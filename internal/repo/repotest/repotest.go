// Package repotest holds the contract tests shared by every repository
// backend.
package repotest

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/repo"
)

// Factory returns a fresh, empty repository for one subtest.
type Factory func(t *testing.T) repo.Repository

// Run executes the repository contract against the backend built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("InsertAndListItem", func(t *testing.T) { testInsertAndListItem(t, newRepo(t)) })
	t.Run("ItemsOrderedBySKU", func(t *testing.T) { testItemsOrderedBySKU(t, newRepo(t)) })
	t.Run("PartialItemUpdate", func(t *testing.T) { testPartialItemUpdate(t, newRepo(t)) })
	t.Run("UpdateMissingItem", func(t *testing.T) { testUpdateMissingItem(t, newRepo(t)) })
	t.Run("DeleteItem", func(t *testing.T) { testDeleteItem(t, newRepo(t)) })
	t.Run("LocationCRUD", func(t *testing.T) { testLocationCRUD(t, newRepo(t)) })
	t.Run("DuplicateLocationCode", func(t *testing.T) { testDuplicateLocationCode(t, newRepo(t)) })
	t.Run("DeleteLocationClearsItems", func(t *testing.T) { testDeleteLocationClearsItems(t, newRepo(t)) })
	t.Run("UserCRUD", func(t *testing.T) { testUserCRUD(t, newRepo(t)) })
	t.Run("DuplicateUsername", func(t *testing.T) { testDuplicateUsername(t, newRepo(t)) })
	t.Run("Branding", func(t *testing.T) { testBranding(t, newRepo(t)) })
}

func testInsertAndListItem(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	in := model.Item{
		SKU:      "BRG-001",
		Name:     "Laptop ThinkPad X1",
		Category: "Electronics",
		Stock:    15,
		PhotoURL: "https://example.com/x1.jpg",
	}
	created, err := r.InsertItem(ctx, in)
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	items, err := r.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	want := in
	want.ID = created.ID
	if items[0] != want {
		t.Errorf("listed item = %+v, want %+v", items[0], want)
	}
}

func testItemsOrderedBySKU(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	for _, sku := range []string{"C-3", "A-1", "B-2"} {
		if _, err := r.InsertItem(ctx, model.Item{SKU: sku, Name: sku}); err != nil {
			t.Fatalf("InsertItem: %v", err)
		}
	}

	items, _ := r.ListItems(ctx)
	if len(items) != 3 || items[0].SKU != "A-1" || items[1].SKU != "B-2" || items[2].SKU != "C-3" {
		t.Errorf("unexpected order: %+v", items)
	}
}

func testPartialItemUpdate(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	created, _ := r.InsertItem(ctx, model.Item{SKU: "BRG-002", Name: "Safety Helmet", Category: "Safety Gear", Stock: 50})

	stock := 42
	updated, err := r.UpdateItem(ctx, created.ID, model.ItemPatch{Stock: &stock})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Stock != 42 {
		t.Errorf("expected stock 42, got %d", updated.Stock)
	}

	items, _ := r.ListItems(ctx)
	got := items[0]
	if got.Stock != 42 || got.Name != "Safety Helmet" || got.Category != "Safety Gear" || got.SKU != "BRG-002" {
		t.Errorf("partial update changed other fields: %+v", got)
	}
}

func testUpdateMissingItem(t *testing.T, r repo.Repository) {
	name := "ghost"
	_, err := r.UpdateItem(context.Background(), repo.NewID(), model.ItemPatch{Name: &name})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testDeleteItem(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	created, _ := r.InsertItem(ctx, model.Item{SKU: "DEL", Name: "Delete Me"})
	if err := r.DeleteItem(ctx, created.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	items, _ := r.ListItems(ctx)
	if len(items) != 0 {
		t.Errorf("expected 0 items after delete, got %d", len(items))
	}

	if err := r.DeleteItem(ctx, created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func testLocationCRUD(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	b, err := r.InsertLocation(ctx, model.Location{Code: "WH-B2", Name: "Electronics Store - Floor 2"})
	if err != nil {
		t.Fatalf("InsertLocation: %v", err)
	}
	if _, err := r.InsertLocation(ctx, model.Location{Code: "WH-A1", Name: "Main Store - Zone A"}); err != nil {
		t.Fatalf("InsertLocation: %v", err)
	}

	locs, _ := r.ListLocations(ctx)
	if len(locs) != 2 || locs[0].Code != "WH-B2" {
		t.Fatalf("expected locations ordered by name, got %+v", locs)
	}

	name := "Annex"
	updated, err := r.UpdateLocation(ctx, b.ID, model.LocationPatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if updated.Name != "Annex" || updated.Code != "WH-B2" {
		t.Errorf("unexpected location after update: %+v", updated)
	}

	if err := r.DeleteLocation(ctx, b.ID); err != nil {
		t.Fatalf("DeleteLocation: %v", err)
	}
	if err := r.DeleteLocation(ctx, b.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.UpdateLocation(ctx, b.ID, model.LocationPatch{Name: &name}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testDuplicateLocationCode(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	if _, err := r.InsertLocation(ctx, model.Location{Code: "WH-A1", Name: "One"}); err != nil {
		t.Fatalf("InsertLocation: %v", err)
	}
	_, err := r.InsertLocation(ctx, model.Location{Code: "WH-A1", Name: "Two"})
	if !errors.Is(err, apperr.ErrWriteConflict) {
		t.Errorf("expected ErrWriteConflict, got %v", err)
	}
}

func testDeleteLocationClearsItems(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	loc, _ := r.InsertLocation(ctx, model.Location{Code: "WH-A1", Name: "Main"})
	other, _ := r.InsertLocation(ctx, model.Location{Code: "WH-B2", Name: "Other"})
	r.InsertItem(ctx, model.Item{SKU: "A", Name: "A", LocationID: loc.ID})
	r.InsertItem(ctx, model.Item{SKU: "B", Name: "B", LocationID: other.ID})

	if err := r.DeleteLocation(ctx, loc.ID); err != nil {
		t.Fatalf("DeleteLocation: %v", err)
	}

	items, _ := r.ListItems(ctx)
	if len(items) != 2 {
		t.Fatalf("expected items to survive location delete, got %d", len(items))
	}
	if items[0].LocationID != "" {
		t.Errorf("expected location cleared on item A, got %q", items[0].LocationID)
	}
	if items[1].LocationID != other.ID {
		t.Errorf("expected item B untouched, got %q", items[1].LocationID)
	}
}

func testUserCRUD(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	u, err := r.InsertUser(ctx, model.User{Username: "siti", Password: "hash", Role: model.RoleStaff})
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	r.InsertUser(ctx, model.User{Username: "budi", Password: "hash", Role: model.RoleAdmin})

	users, _ := r.ListUsers(ctx)
	if len(users) != 2 || users[0].Username != "budi" {
		t.Fatalf("expected users ordered by username, got %+v", users)
	}

	pw := "newhash"
	updated, err := r.UpdateUser(ctx, u.ID, model.UserPatch{Password: &pw})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Password != "newhash" || updated.Username != "siti" || updated.Role != model.RoleStaff {
		t.Errorf("unexpected user after update: %+v", updated)
	}

	if err := r.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := r.DeleteUser(ctx, u.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	users, _ = r.ListUsers(ctx)
	if len(users) != 1 {
		t.Errorf("expected 1 user after delete, got %d", len(users))
	}
}

func testDuplicateUsername(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	if _, err := r.InsertUser(ctx, model.User{Username: "Budi", Password: "x", Role: model.RoleStaff}); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	_, err := r.InsertUser(ctx, model.User{Username: "budi", Password: "y", Role: model.RoleStaff})
	if !errors.Is(err, apperr.ErrWriteConflict) {
		t.Errorf("expected ErrWriteConflict, got %v", err)
	}
}

func testBranding(t *testing.T, r repo.Repository) {
	ctx := context.Background()

	b, err := r.GetBranding(ctx)
	if err != nil {
		t.Fatalf("GetBranding: %v", err)
	}
	if b != nil {
		t.Fatalf("expected nil branding before first put, got %+v", b)
	}

	first := model.DefaultBranding()
	first.Title = "Gudang Utama"
	if err := r.PutBranding(ctx, first); err != nil {
		t.Fatalf("PutBranding: %v", err)
	}

	second := first
	second.PrimaryColor = "#000000"
	if err := r.PutBranding(ctx, second); err != nil {
		t.Fatalf("PutBranding: %v", err)
	}

	got, err := r.GetBranding(ctx)
	if err != nil {
		t.Fatalf("GetBranding: %v", err)
	}
	if got == nil || *got != second {
		t.Errorf("GetBranding = %+v, want %+v", got, second)
	}
}
