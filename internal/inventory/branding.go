package inventory

import (
	"context"
	"log/slog"

	"github.com/erazemk/gudang/internal/model"
)

// UpdateBranding merges patch over the current branding and stores the
// whole result as one record. The in-memory branding changes only after the
// write succeeds. Concurrent updates are applied one at a time so neither
// merges over a value the other is about to replace.
func (c *Controller) UpdateBranding(ctx context.Context, patch model.BrandingPatch) (model.Branding, error) {
	c.brandingMu.Lock()
	defer c.brandingMu.Unlock()

	merged := c.Branding().Merge(patch)

	err := retry(ctx, c.retry, func(ctx context.Context) error {
		return c.repo.PutBranding(ctx, merged)
	})
	c.metrics.observeMutation(collBranding, "upsert", err)
	if err != nil {
		c.noteFailure(err)
		slog.Warn("write failed", "collection", collBranding, "op", "upsert", "error", err)
		return c.Branding(), err
	}

	c.mu.Lock()
	c.snap.Branding = merged
	c.mu.Unlock()

	return merged, c.afterWrite(ctx)
}
