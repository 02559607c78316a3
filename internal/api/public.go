package api

import (
	"net/http"

	"github.com/erazemk/gudang/internal/inventory"
)

// PublicHandler serves the read-only catalogue shown without signing in.
type PublicHandler struct {
	Inventory *inventory.Controller
}

// Branding handles GET /api/public/branding.
func (h *PublicHandler) Branding(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Inventory.Branding())
}

// Items handles GET /api/public/items?q=&location=.
func (h *PublicHandler) Items(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jsonResponse(w, http.StatusOK, h.Inventory.SearchItems(q.Get("q"), q.Get("location")))
}

// Locations handles GET /api/public/locations.
func (h *PublicHandler) Locations(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Inventory.Locations())
}

// Status handles GET /api/status.
func (h *PublicHandler) Status(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Inventory.Status())
}
