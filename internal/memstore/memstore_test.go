package memstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/blob"
	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/repo"
	"github.com/erazemk/gudang/internal/repo/repotest"
)

func TestContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repo.Repository {
		return New()
	})
}

func TestPersistedContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repo.Repository {
		blobs, err := blob.NewFS(t.TempDir(), "")
		if err != nil {
			t.Fatal(err)
		}
		s, err := Open(context.Background(), blobs, "")
		if err != nil {
			t.Fatal(err)
		}
		return s
	})
}

func TestStateSurvivesReopen(t *testing.T) {
	blobs, _ := blob.NewFS(t.TempDir(), "")
	ctx := context.Background()

	s, err := Open(ctx, blobs, "state.json")
	if err != nil {
		t.Fatal(err)
	}
	loc, _ := s.InsertLocation(ctx, model.Location{Code: "WH-A1", Name: "Main"})
	s.InsertItem(ctx, model.Item{SKU: "BRG-001", Name: "Laptop", LocationID: loc.ID, Stock: 3})
	s.PutBranding(ctx, model.Branding{Title: "Gudang"})
	secret, _ := s.JWTSecret(ctx)

	reopened, err := Open(ctx, blobs, "state.json")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	items, _ := reopened.ListItems(ctx)
	if len(items) != 1 || items[0].LocationID != loc.ID {
		t.Errorf("unexpected items after reopen: %+v", items)
	}
	b, _ := reopened.GetBranding(ctx)
	if b == nil || b.Title != "Gudang" {
		t.Errorf("unexpected branding after reopen: %+v", b)
	}
	again, _ := reopened.JWTSecret(ctx)
	if again != secret {
		t.Error("jwt secret changed across reopen")
	}
}

func TestUnknownVersionIsSchemaMismatch(t *testing.T) {
	blobs, _ := blob.NewFS(t.TempDir(), "")
	ctx := context.Background()
	blobs.Put(ctx, DefaultKey, strings.NewReader(`{"version": 99}`), "application/json")

	_, err := Open(ctx, blobs, "")
	if !errors.Is(err, apperr.ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

// failingBlobs accepts reads but rejects every write.
type failingBlobs struct{ blob.Store }

func (failingBlobs) Put(context.Context, string, io.Reader, string) error {
	return errors.New("disk full")
}

func TestFailedPersistLeavesStateUnchanged(t *testing.T) {
	inner, _ := blob.NewFS(t.TempDir(), "")
	ctx := context.Background()

	s, err := Open(ctx, failingBlobs{inner}, "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.InsertItem(ctx, model.Item{SKU: "X", Name: "X"})
	if !errors.Is(err, apperr.ErrBackendWrite) {
		t.Fatalf("expected ErrBackendWrite, got %v", err)
	}

	items, _ := s.ListItems(ctx)
	if len(items) != 0 {
		t.Errorf("expected no items after failed write, got %d", len(items))
	}
}
