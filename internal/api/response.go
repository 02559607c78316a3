package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/inventory"
)

// staleHeader marks responses to writes whose follow-up refresh failed.
const staleHeader = "X-Gudang-Stale"

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message, code string) {
	jsonResponse(w, status, errorResponse{Error: message, Code: code})
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindWriteConflict:
		return http.StatusConflict
	case apperr.KindAuthRejected:
		return http.StatusBadGateway
	case apperr.KindSchemaMismatch, apperr.KindNetworkUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status and message of its kind.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "kind", kind, "error", err)
	}
	msg, code := apperr.Message(err)
	jsonError(w, status, msg, code)
}

// writeResult writes the result of a controller write. A write that was
// stored but not yet refreshed is still reported as a success.
func writeResult(w http.ResponseWriter, status int, data any, err error) {
	var stale *inventory.StaleError
	if errors.As(err, &stale) {
		slog.Warn("write stored, snapshot not refreshed", "error", stale.Err)
		w.Header().Set(staleHeader, "1")
		err = nil
	}
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, status, data)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

func badBody(w http.ResponseWriter) {
	jsonError(w, http.StatusBadRequest, "invalid request body", apperr.ErrInvalidField.Code)
}
