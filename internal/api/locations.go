package api

import (
	"net/http"

	"github.com/erazemk/gudang/internal/inventory"
	"github.com/erazemk/gudang/internal/model"
)

// LocationsHandler handles location endpoints.
type LocationsHandler struct {
	Inventory *inventory.Controller
}

// List handles GET /api/locations.
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Inventory.Locations())
}

// Create handles POST /api/locations.
func (h *LocationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Location
	if err := decodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}

	loc, err := h.Inventory.AddLocation(r.Context(), req)
	writeResult(w, http.StatusCreated, loc, err)
}

// Update handles PUT /api/locations/{id}.
func (h *LocationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.LocationPatch
	if err := decodeJSON(r, &patch); err != nil {
		badBody(w)
		return
	}

	loc, err := h.Inventory.UpdateLocation(r.Context(), r.PathValue("id"), patch)
	writeResult(w, http.StatusOK, loc, err)
}

// Delete handles DELETE /api/locations/{id}. Items at the location are kept
// without a location.
func (h *LocationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Inventory.DeleteLocation(r.Context(), r.PathValue("id"))
	writeResult(w, http.StatusOK, map[string]string{"message": "location deleted"}, err)
}
