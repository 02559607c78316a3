package inventory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/auth"
	"github.com/erazemk/gudang/internal/model"
)

// Collection names used in logs and metrics.
const (
	collItems     = "items"
	collLocations = "locations"
	collUsers     = "users"
	collBranding  = "branding"
)

var errFallbackAdmin = apperr.Validation(apperr.ErrInvalidField, "the built-in admin cannot be modified; create a user instead")

// checkUsername rejects a username another stored user already holds. The
// SQL indexes fold case differently per dialect (SQLite NOCASE is ASCII
// only), so the controller applies the same Unicode rule login uses.
func (c *Controller) checkUsername(username, exceptID string) error {
	for _, u := range c.Users() {
		if u.IsFallback() || u.ID == exceptID {
			continue
		}
		if model.SameUsername(u.Username, username) {
			return apperr.Backend(apperr.ErrWriteConflict, "username already taken", nil)
		}
	}
	return nil
}

// write runs fn against the repository, records the outcome and refreshes
// the snapshot on success. Inserts pass NoRetry since they carry no
// idempotency key.
func write[T any](ctx context.Context, c *Controller, coll, op string, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	v, err := retryValue(ctx, p, fn)
	c.metrics.observeMutation(coll, op, err)
	if err != nil {
		c.noteFailure(err)
		slog.Warn("write failed", "collection", coll, "op", op, "error", err)
		return v, err
	}
	return v, c.afterWrite(ctx)
}

// AddItem validates and inserts an item. An empty SKU is replaced with a
// generated one.
func (c *Controller) AddItem(ctx context.Context, item model.Item) (*model.Item, error) {
	item.SKU = strings.TrimSpace(item.SKU)
	if item.SKU == "" {
		item.SKU = model.GenerateSKU(c.now())
	}
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	if err := item.Validate(); err != nil {
		return nil, err
	}

	return write(ctx, c, collItems, "insert", NoRetry, func(ctx context.Context) (*model.Item, error) {
		return c.repo.InsertItem(ctx, item)
	})
}

// UpdateItem applies a partial update to an item.
func (c *Controller) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	if patch.Empty() {
		return nil, apperr.Validation(apperr.ErrRequiredField, "nothing to update")
	}
	patch.SKU = trimmed(patch.SKU)
	patch.Name = trimmed(patch.Name)
	patch.Category = trimmed(patch.Category)
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	return write(ctx, c, collItems, "update", c.retry, func(ctx context.Context) (*model.Item, error) {
		return c.repo.UpdateItem(ctx, id, patch)
	})
}

// DeleteItem removes an item.
func (c *Controller) DeleteItem(ctx context.Context, id string) error {
	_, err := write(ctx, c, collItems, "delete", c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.repo.DeleteItem(ctx, id)
	})
	return err
}

// AddLocation validates and inserts a location. The code is stored
// uppercased.
func (c *Controller) AddLocation(ctx context.Context, loc model.Location) (*model.Location, error) {
	loc.Code = model.NormalizeCode(loc.Code)
	loc.Name = strings.TrimSpace(loc.Name)
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	return write(ctx, c, collLocations, "insert", NoRetry, func(ctx context.Context) (*model.Location, error) {
		return c.repo.InsertLocation(ctx, loc)
	})
}

// UpdateLocation applies a partial update to a location.
func (c *Controller) UpdateLocation(ctx context.Context, id string, patch model.LocationPatch) (*model.Location, error) {
	if patch.Empty() {
		return nil, apperr.Validation(apperr.ErrRequiredField, "nothing to update")
	}
	if patch.Code != nil {
		code := model.NormalizeCode(*patch.Code)
		patch.Code = &code
	}
	patch.Name = trimmed(patch.Name)
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	return write(ctx, c, collLocations, "update", c.retry, func(ctx context.Context) (*model.Location, error) {
		return c.repo.UpdateLocation(ctx, id, patch)
	})
}

// DeleteLocation removes a location. Items stored there lose their location.
func (c *Controller) DeleteLocation(ctx context.Context, id string) error {
	_, err := write(ctx, c, collLocations, "delete", c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.repo.DeleteLocation(ctx, id)
	})
	return err
}

// AddUser validates and inserts a user. The password is stored as a bcrypt
// hash.
func (c *Controller) AddUser(ctx context.Context, user model.User) (*model.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := c.checkUsername(user.Username, ""); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(user.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hash

	return c.insertUser(ctx, user)
}

// ImportUser inserts a user whose password is already in stored form, as
// found in a backup.
func (c *Controller) ImportUser(ctx context.Context, user model.User) (*model.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.IsFallback() {
		return nil, errFallbackAdmin
	}
	if user.Username == "" {
		return nil, apperr.Validation(apperr.ErrRequiredField, "username required")
	}
	if !model.ValidRole(user.Role) {
		return nil, apperr.Validation(apperr.ErrInvalidField, "role must be admin or staff")
	}
	if user.Password == "" {
		return nil, apperr.Validation(apperr.ErrRequiredField, "password required")
	}
	if err := c.checkUsername(user.Username, ""); err != nil {
		return nil, err
	}
	return c.insertUser(ctx, user)
}

func (c *Controller) insertUser(ctx context.Context, user model.User) (*model.User, error) {
	return write(ctx, c, collUsers, "insert", NoRetry, func(ctx context.Context) (*model.User, error) {
		return c.repo.InsertUser(ctx, user)
	})
}

// UpdateUser applies a partial update to a user. A new password is hashed
// before it is written.
func (c *Controller) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	if id == model.FallbackAdminID {
		return nil, errFallbackAdmin
	}
	if patch.Empty() {
		return nil, apperr.Validation(apperr.ErrRequiredField, "nothing to update")
	}
	patch.Username = trimmed(patch.Username)
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Username != nil {
		if err := c.checkUsername(*patch.Username, id); err != nil {
			return nil, err
		}
	}
	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		patch.Password = &hash
	}

	return write(ctx, c, collUsers, "update", c.retry, func(ctx context.Context) (*model.User, error) {
		return c.repo.UpdateUser(ctx, id, patch)
	})
}

// DeleteUser removes a user.
func (c *Controller) DeleteUser(ctx context.Context, id string) error {
	if id == model.FallbackAdminID {
		return errFallbackAdmin
	}
	_, err := write(ctx, c, collUsers, "delete", c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.repo.DeleteUser(ctx, id)
	})
	return err
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
