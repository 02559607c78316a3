package model

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/erazemk/gudang/internal/apperr"
)

// Item is a stocked article. LocationID is empty when the item has no
// location; it may also point at a location that no longer exists.
type Item struct {
	ID         string `json:"id" db:"id"`
	SKU        string `json:"sku" db:"sku"`
	Name       string `json:"name" db:"name"`
	Category   string `json:"category" db:"category"`
	LocationID string `json:"location_id,omitempty" db:"location_id"`
	Stock      int    `json:"stock" db:"stock"`
	PhotoURL   string `json:"photo_url,omitempty" db:"photo_url"`
}

// ItemPatch holds the fields of a partial item update. Nil fields are left
// unchanged; a LocationID pointing at "" clears the location.
type ItemPatch struct {
	SKU        *string `json:"sku,omitempty"`
	Name       *string `json:"name,omitempty"`
	Category   *string `json:"category,omitempty"`
	LocationID *string `json:"location_id,omitempty"`
	Stock      *int    `json:"stock,omitempty"`
	PhotoURL   *string `json:"photo_url,omitempty"`
}

// LowStockThreshold is the stock level under which an item counts as low.
const LowStockThreshold = 10

// Validate checks the fields required on insert.
func (i Item) Validate() error {
	if strings.TrimSpace(i.SKU) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "sku required")
	}
	if strings.TrimSpace(i.Name) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "name required")
	}
	if i.Stock < 0 {
		return apperr.Validation(apperr.ErrInvalidField, "stock must not be negative")
	}
	return nil
}

// Validate checks the fields that are set.
func (p ItemPatch) Validate() error {
	if p.SKU != nil && strings.TrimSpace(*p.SKU) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "sku required")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "name required")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return apperr.Validation(apperr.ErrInvalidField, "stock must not be negative")
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.SKU == nil && p.Name == nil && p.Category == nil &&
		p.LocationID == nil && p.Stock == nil && p.PhotoURL == nil
}

// Apply returns a copy of i with the patch applied.
func (p ItemPatch) Apply(i Item) Item {
	if p.SKU != nil {
		i.SKU = *p.SKU
	}
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Category != nil {
		i.Category = *p.Category
	}
	if p.LocationID != nil {
		i.LocationID = *p.LocationID
	}
	if p.Stock != nil {
		i.Stock = *p.Stock
	}
	if p.PhotoURL != nil {
		i.PhotoURL = *p.PhotoURL
	}
	return i
}

// GenerateSKU returns an automatic SKU built from the last six digits of the
// millisecond timestamp and a random two-digit suffix.
func GenerateSKU(now time.Time) string {
	ms := fmt.Sprintf("%d", now.UnixMilli())
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("BRG-%s%d", ms, rand.IntN(100))
}
