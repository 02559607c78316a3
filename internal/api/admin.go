package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/gudang/internal/inventory"
	"github.com/erazemk/gudang/internal/model"
	"github.com/erazemk/gudang/internal/transfer"
)

// AdminHandler handles dashboard, branding and backup endpoints.
type AdminHandler struct {
	Inventory *inventory.Controller
}

// Refresh handles POST /api/refresh.
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	_, err := h.Inventory.RefreshAll(r.Context())
	if errors.Is(err, inventory.ErrSuperseded) {
		err = nil
	}
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, h.Inventory.Status())
}

// Stats handles GET /api/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Inventory.Stats())
}

// UpdateBranding handles PUT /api/branding. Fields missing from the body
// keep their current value.
func (h *AdminHandler) UpdateBranding(w http.ResponseWriter, r *http.Request) {
	var patch model.BrandingPatch
	if err := decodeJSON(r, &patch); err != nil {
		badBody(w)
		return
	}

	b, err := h.Inventory.UpdateBranding(r.Context(), patch)
	writeResult(w, http.StatusOK, b, err)
}

// Backup handles GET /api/backup.
func (h *AdminHandler) Backup(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	name := fmt.Sprintf("gudang-backup-%s.json", now.Format("20060102-150405"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	jsonResponse(w, http.StatusOK, transfer.Export(h.Inventory.Snapshot(), now))
}

// Restore handles POST /api/backup.
func (h *AdminHandler) Restore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20)
	b, err := transfer.DecodeBackup(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	rep, err := transfer.Restore(r.Context(), h.Inventory, b)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("backup restored", "items", rep.Items, "locations", rep.Locations, "users", rep.Users, "skipped", len(rep.Skipped))
	jsonResponse(w, http.StatusOK, rep)
}
