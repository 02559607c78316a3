package inventory

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/gudang/internal/model"
)

// RefreshAll fetches all four collections concurrently and replaces the
// snapshot as a whole. If any fetch fails the previous snapshot is kept.
//
// Starting a refresh cancels any refresh still in flight; the older call
// returns ErrSuperseded and never applies its result.
func (c *Controller) RefreshAll(ctx context.Context) (model.Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The generation and the registered cancel func change together, so the
	// newest refresh is never the one cancelled.
	c.cancelMu.Lock()
	gen := c.gen.Add(1)
	if c.cancelOld != nil {
		c.cancelOld()
	}
	c.cancelOld = cancel
	c.cancelMu.Unlock()

	start := c.now()

	var (
		items     []model.Item
		locations []model.Location
		users     []model.User
		branding  *model.Branding
		errs      [4]error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, errs[0] = retryValue(gctx, c.retry, c.repo.ListItems)
		return errs[0]
	})
	g.Go(func() error {
		locations, errs[1] = retryValue(gctx, c.retry, c.repo.ListLocations)
		return errs[1]
	})
	g.Go(func() error {
		users, errs[2] = retryValue(gctx, c.retry, c.repo.ListUsers)
		return errs[2]
	})
	g.Go(func() error {
		branding, errs[3] = retryValue(gctx, c.retry, c.repo.GetBranding)
		return errs[3]
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen.Load() {
		c.metrics.observeRefresh(resultSuperseded, c.now().Sub(start))
		return c.snap.Clone(), ErrSuperseded
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			c.metrics.observeRefresh(resultError, c.now().Sub(start))
			return c.snap.Clone(), err
		}

		for _, e := range errs {
			if e != nil {
				c.markFailure(e)
			}
		}
		c.lastErr = err.Error()
		c.metrics.observeRefresh(resultError, c.now().Sub(start))
		slog.Warn("refresh failed, keeping previous snapshot", "driver", c.repo.Driver(), "error", err)
		return c.snap.Clone(), err
	}

	if items == nil {
		items = []model.Item{}
	}
	if locations == nil {
		locations = []model.Location{}
	}
	if len(users) == 0 {
		users = []model.User{model.FallbackAdmin()}
	}
	b := model.DefaultBranding()
	if branding != nil {
		b = *branding
	}

	c.snap = model.Snapshot{Items: items, Locations: locations, Users: users, Branding: b}
	c.schemaErr = false
	c.connErr = false
	c.lastErr = ""
	c.lastRefresh = c.now()
	c.metrics.setSchemaError(false)
	c.metrics.observeRefresh(resultOK, c.now().Sub(start))

	return c.snap.Clone(), nil
}

// afterWrite refreshes the snapshot after a successful write.
func (c *Controller) afterWrite(ctx context.Context) error {
	_, err := c.RefreshAll(ctx)
	if err == nil || errors.Is(err, ErrSuperseded) {
		// A newer refresh started after this write and will include it.
		return nil
	}
	return &StaleError{Err: err}
}
