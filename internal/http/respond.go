package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/mauv0809/rivalry/internal/session"
)

var errBadJSON = failure.Precondition("request body is not valid JSON")

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrExpiredToken):
		return http.StatusUnauthorized
	case failure.IsMissing(err):
		return http.StatusNotFound
	}
	switch failure.KindOf(err) {
	case failure.KindPrecondition:
		return http.StatusBadRequest
	case failure.KindPermission:
		return http.StatusForbidden
	case failure.KindStale:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{OK: true, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	}
	writeJSON(w, status, Response{OK: false, Kind: failure.KindOf(err), Reason: failure.ReasonOf(err)})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debug("Failed to decode request body", "error", fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, err))
		return errBadJSON
	}
	return nil
}
