// Package inventory holds the synchronization controller: the single owner of
// the items, locations, users and branding collections. Every mutation is
// written through to the repository and followed by a full refresh; readers
// only ever see complete snapshots.
//
// The refresh after each write leaves a staleness window: between a
// successful write and the end of the following refresh, readers still see
// the previous snapshot.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/repo"
)

// ErrSuperseded is returned by a refresh whose result was discarded because
// a newer refresh started before it finished.
var ErrSuperseded = errors.New("refresh superseded by a newer refresh")

// StaleError reports a write that succeeded while the refresh following it
// failed. The in-memory snapshot does not reflect the write yet.
type StaleError struct {
	Err error
}

func (e *StaleError) Error() string {
	return "write succeeded but refresh failed: " + e.Err.Error()
}

func (e *StaleError) Unwrap() error {
	return e.Err
}

// Controller is the synchronization controller.
type Controller struct {
	repo    repo.Repository
	retry   RetryPolicy
	metrics *Metrics
	now     func() time.Time

	mu          sync.RWMutex
	snap        model.Snapshot
	schemaErr   bool
	connErr     bool
	lastRefresh time.Time
	lastErr     string

	gen       atomic.Uint64
	cancelMu  sync.Mutex
	cancelOld context.CancelFunc

	brandingMu sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithRetry sets the retry policy for network failures.
func WithRetry(p RetryPolicy) Option {
	return func(c *Controller) { c.retry = p }
}

// WithMetrics attaches metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller over r. Until the first successful refresh the
// snapshot holds no items or locations, only the fallback admin, and the
// default branding.
func New(r repo.Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:  r,
		retry: DefaultRetryPolicy,
		now:   time.Now,
		snap: model.Snapshot{
			Items:     []model.Item{},
			Locations: []model.Location{},
			Users:     []model.User{model.FallbackAdmin()},
			Branding:  model.DefaultBranding(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status describes the controller's view of the backend.
type Status struct {
	Driver          string    `json:"driver"`
	SchemaError     bool      `json:"schema_error"`
	ConnectionError bool      `json:"connection_error"`
	LastRefresh     time.Time `json:"last_refresh,omitzero"`
	LastError       string    `json:"last_error,omitempty"`
}

// Status returns the current backend status flags.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		Driver:          c.repo.Driver(),
		SchemaError:     c.schemaErr,
		ConnectionError: c.connErr,
		LastRefresh:     c.lastRefresh,
		LastError:       c.lastErr,
	}
}

// SchemaError reports whether the backend rejected a query because of a
// missing or outdated schema. The flag stays set until a refresh succeeds.
func (c *Controller) SchemaError() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schemaErr
}

// ConnectionError reports whether the backend rejected the configured
// credentials. The flag stays set until a refresh succeeds.
func (c *Controller) ConnectionError() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connErr
}

// noteFailure records the sticky flags carried by err.
func (c *Controller) noteFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markFailure(err)
}

// markFailure is noteFailure for callers already holding mu.
func (c *Controller) markFailure(err error) {
	switch apperr.KindOf(err) {
	case apperr.KindSchemaMismatch:
		if !c.schemaErr {
			slog.Error("backend schema mismatch", "driver", c.repo.Driver(), "error", err)
		}
		c.schemaErr = true
		c.metrics.setSchemaError(true)
	case apperr.KindAuthRejected:
		if !c.connErr {
			slog.Error("backend rejected credentials", "driver", c.repo.Driver(), "error", err)
		}
		c.connErr = true
	}
}

// Snapshot returns a copy of all four collections.
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Clone()
}

// Items returns a copy of the item collection.
func (c *Controller) Items() []model.Item {
	return c.Snapshot().Items
}

// Locations returns a copy of the location collection.
func (c *Controller) Locations() []model.Location {
	return c.Snapshot().Locations
}

// Users returns a copy of the user collection, passwords included.
func (c *Controller) Users() []model.User {
	return c.Snapshot().Users
}

// Branding returns the current branding.
func (c *Controller) Branding() model.Branding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Branding
}

// Driver returns the repository driver name.
func (c *Controller) Driver() string {
	return c.repo.Driver()
}
