package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/blob"
	"github.com/erazemk/gudang/internal/imaging"
)

// MediaHandler serves stored photos.
type MediaHandler struct {
	Blobs blob.Store
}

// Get handles GET /media/{key...}. Only photos are served; the blob store
// may also hold the memory backend's state.
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, err := blob.CleanKey(r.PathValue("key"))
	if err != nil || !strings.HasPrefix(key, imaging.KeyPrefix) {
		jsonError(w, http.StatusNotFound, "not found", apperr.ErrNotFound.Code)
		return
	}

	body, contentType, err := h.Blobs.Get(r.Context(), key)
	if errors.Is(err, blob.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "not found", apperr.ErrNotFound.Code)
		return
	}
	if err != nil {
		slog.Error("reading blob", "key", key, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to read media", apperr.ErrBackendWrite.Code)
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("writing media", "key", key, "error", err)
	}
}
