package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"clubdash/internal/chat"
	"clubdash/internal/core"
	"clubdash/internal/fetch"
	applog "clubdash/internal/log"
	"clubdash/internal/viewmodel"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error    string              `json:"error"`
	Snapshot *viewmodel.Snapshot `json:"snapshot,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Default(applog.ComponentHTTP).Error("Failed to encode response", applog.FieldError, err)
	}
}

// writeError maps err to a status and writes it, with the snapshot when one
// is given so clients can render the resulting state.
func writeError(w http.ResponseWriter, err error, snap *viewmodel.Snapshot) {
	writeJSON(w, statusFor(err), errorResponse{Error: errorMessage(err), Snapshot: snap})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case viewmodel.IsBusy(err), errors.Is(err, viewmodel.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNoData), isNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, viewmodel.ErrClosed), errors.Is(err, chat.ErrClosed), errors.Is(err, errTooManyUnits):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func errorMessage(err error) string {
	if errors.Is(err, core.ErrNoData) {
		return viewmodel.NoDataMessage
	}
	return fetch.Message(err)
}

func isNotFound(err error) bool { return fetch.IsNotFound(err) }

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		"client_ip", applog.ClientIP(r), "path", r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Rate limit exceeded. Please try again later."})
}

func parseUnit(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}
