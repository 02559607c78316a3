package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/db"
	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/repo"
	"github.com/erazemk/gudang/internal/repo/repotest"
)

func TestSQLiteContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repo.Repository {
		return New(db.NewTestDB(t))
	})
}

func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("GUDANG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GUDANG_TEST_POSTGRES_DSN not set")
	}

	repotest.Run(t, func(t *testing.T) repo.Repository {
		database, err := db.Open(db.DriverPostgres, dsn)
		if err != nil {
			t.Fatalf("opening postgres: %v", err)
		}
		t.Cleanup(func() { database.Close() })

		database.MustExec(`DROP TABLE IF EXISTS items, locations, users, settings`)
		if err := db.EnsureSchema(database); err != nil {
			t.Fatalf("EnsureSchema: %v", err)
		}
		return New(database)
	})
}

func TestMissingTableIsSchemaMismatch(t *testing.T) {
	database := db.NewTestDB(t)
	database.MustExec(`DROP TABLE locations`)
	s := New(database)

	_, err := s.ListLocations(context.Background())
	if !errors.Is(err, apperr.ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestGetItemMissing(t *testing.T) {
	s := New(db.NewTestDB(t))

	_, err := s.GetItem(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNegativeStockRejected(t *testing.T) {
	s := New(db.NewTestDB(t))

	_, err := s.InsertItem(context.Background(), model.Item{SKU: "X", Name: "X", Stock: -1})
	if !errors.Is(err, apperr.ErrWriteConflict) {
		t.Errorf("expected constraint failure as ErrWriteConflict, got %v", err)
	}
}

func TestEmptyPatchReturnsCurrent(t *testing.T) {
	s := New(db.NewTestDB(t))
	ctx := context.Background()

	item, _ := s.InsertItem(ctx, model.Item{SKU: "X", Name: "X", Stock: 3})
	got, err := s.UpdateItem(ctx, item.ID, model.ItemPatch{})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if *got != *item {
		t.Errorf("got %+v, want %+v", got, item)
	}
}

func TestJWTSecretGeneratesAndPersists(t *testing.T) {
	s := New(db.NewTestDB(t))
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := s.JWTSecret(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := s.JWTSecret(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestBrandingDoesNotClobberSecret(t *testing.T) {
	s := New(db.NewTestDB(t))
	ctx := context.Background()

	secret, _ := s.JWTSecret(ctx)
	if err := s.PutBranding(ctx, model.DefaultBranding()); err != nil {
		t.Fatal(err)
	}
	again, _ := s.JWTSecret(ctx)
	if secret != again {
		t.Error("branding upsert changed the jwt secret")
	}
}
