package api

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/blob"
	"github.com/erazemk/gudang/internal/imaging"
	"github.com/erazemk/gudang/internal/inventory"
	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/transfer"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Inventory *inventory.Controller
	Blobs     blob.Store
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Inventory.Items())
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Item
	if err := decodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}

	item, err := h.Inventory.AddItem(r.Context(), req)
	writeResult(w, http.StatusCreated, item, err)
}

// Update handles PUT /api/items/{id}. Only the fields present in the body
// change.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		badBody(w)
		return
	}

	item, err := h.Inventory.UpdateItem(r.Context(), r.PathValue("id"), patch)
	writeResult(w, http.StatusOK, item, err)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Inventory.DeleteItem(r.Context(), r.PathValue("id"))
	writeResult(w, http.StatusOK, map[string]string{"message": "item deleted"}, err)
}

// UploadPhoto handles PUT /api/items/{id}/photo. The photo is sent as the
// "photo" field of a multipart form.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required", apperr.ErrRequiredField.Code)
		return
	}
	defer file.Close()

	url, err := imaging.Store(r.Context(), h.Blobs, file)
	if err != nil {
		writeError(w, err)
		return
	}

	item, err := h.Inventory.UpdateItem(r.Context(), r.PathValue("id"), model.ItemPatch{PhotoURL: &url})
	writeResult(w, http.StatusOK, item, err)
}

// Import handles POST /api/items/import. The CSV is either the request body
// or the "file" field of a multipart form.
func (h *ItemsHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	var src io.Reader = r.Body
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); strings.HasPrefix(ct, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			jsonError(w, http.StatusBadRequest, "csv file required", apperr.ErrRequiredField.Code)
			return
		}
		defer file.Close()
		src = file
	}

	rows, skipped, err := transfer.ParseItemsCSV(src)
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := transfer.ImportItems(r.Context(), h.Inventory, rows)
	rep.Skipped = append(skipped, rep.Skipped...)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, rep)
}

// Export handles GET /api/items/export.
func (h *ItemsHandler) Export(w http.ResponseWriter, r *http.Request) {
	s := h.Inventory.Snapshot()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="items.csv"`)
	if err := transfer.WriteItemsCSV(w, s.Items, s.Locations); err != nil {
		slog.Error("writing csv export", "error", err)
	}
}
