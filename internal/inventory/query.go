package inventory

import (
	"strings"

	"github.com/erazemk/gudang/internal/model"
)

// SearchItems returns the items whose name or SKU contains query, ignoring
// case. A non-empty locationID restricts the result to that location.
func (c *Controller) SearchItems(query, locationID string) []model.Item {
	q := strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []model.Item{}
	for _, it := range c.snap.Items {
		if locationID != "" && it.LocationID != locationID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Name), q) && !strings.Contains(strings.ToLower(it.SKU), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Stats summarises the current snapshot for the dashboard.
type Stats struct {
	TotalItems      int            `json:"total_items"`
	TotalStock      int            `json:"total_stock"`
	LowStock        int            `json:"low_stock"`
	TotalLocations  int            `json:"total_locations"`
	TotalUsers      int            `json:"total_users"`
	ItemsByLocation map[string]int `json:"items_by_location"`
	Unassigned      int            `json:"unassigned"`
}

// Stats computes dashboard figures from the current snapshot. Items whose
// location no longer exists count as unassigned.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		TotalItems:      len(c.snap.Items),
		TotalLocations:  len(c.snap.Locations),
		TotalUsers:      len(c.snap.Users),
		ItemsByLocation: make(map[string]int, len(c.snap.Locations)),
	}
	for _, loc := range c.snap.Locations {
		s.ItemsByLocation[loc.ID] = 0
	}
	for _, it := range c.snap.Items {
		s.TotalStock += it.Stock
		if it.Stock < model.LowStockThreshold {
			s.LowStock++
		}
		if _, ok := s.ItemsByLocation[it.LocationID]; ok {
			s.ItemsByLocation[it.LocationID]++
		} else {
			s.Unassigned++
		}
	}
	return s
}
