package inventory

import (
	"context"
	"sync"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/memstore"
	"github.com/erazemk/gudang/internal/model"
)

var errUnreachable = apperr.Backend(apperr.ErrNetworkUnavailable, "backend is unreachable", nil)

// faultyRepo is an in-memory repository that fails calls on demand.
type faultyRepo struct {
	*memstore.Store

	mu    sync.Mutex
	fail  map[string][]error
	calls map[string]int

	// When set, the next ListItems call signals entered and then blocks
	// until its context is cancelled.
	blockList bool
	entered   chan struct{}
}

func newFaultyRepo() *faultyRepo {
	return &faultyRepo{
		Store: memstore.New(),
		fail:  map[string][]error{},
		calls: map[string]int{},
	}
}

// failNext queues errors returned by the next calls of op.
func (f *faultyRepo) failNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = append(f.fail[op], errs...)
}

// blockNextList makes the next ListItems call block until its context is
// cancelled. The returned channel is closed once that call has started.
func (f *faultyRepo) blockNextList() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockList = true
	f.entered = make(chan struct{})
	return f.entered
}

func (f *faultyRepo) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *faultyRepo) next(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	q := f.fail[op]
	if len(q) == 0 {
		return nil
	}
	f.fail[op] = q[1:]
	return q[0]
}

func (f *faultyRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	f.mu.Lock()
	block, entered := f.blockList, f.entered
	f.blockList = false
	f.mu.Unlock()
	if block {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if err := f.next("ListItems"); err != nil {
		return nil, err
	}
	return f.Store.ListItems(ctx)
}

func (f *faultyRepo) ListLocations(ctx context.Context) ([]model.Location, error) {
	if err := f.next("ListLocations"); err != nil {
		return nil, err
	}
	return f.Store.ListLocations(ctx)
}

func (f *faultyRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := f.next("ListUsers"); err != nil {
		return nil, err
	}
	return f.Store.ListUsers(ctx)
}

func (f *faultyRepo) GetBranding(ctx context.Context) (*model.Branding, error) {
	if err := f.next("GetBranding"); err != nil {
		return nil, err
	}
	return f.Store.GetBranding(ctx)
}

func (f *faultyRepo) PutBranding(ctx context.Context, b model.Branding) error {
	if err := f.next("PutBranding"); err != nil {
		return err
	}
	return f.Store.PutBranding(ctx, b)
}

func (f *faultyRepo) InsertItem(ctx context.Context, item model.Item) (*model.Item, error) {
	if err := f.next("InsertItem"); err != nil {
		return nil, err
	}
	return f.Store.InsertItem(ctx, item)
}

func (f *faultyRepo) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	if err := f.next("UpdateItem"); err != nil {
		return nil, err
	}
	return f.Store.UpdateItem(ctx, id, patch)
}

func (f *faultyRepo) InsertUser(ctx context.Context, u model.User) (*model.User, error) {
	if err := f.next("InsertUser"); err != nil {
		return nil, err
	}
	return f.Store.InsertUser(ctx, u)
}
