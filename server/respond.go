package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/rs/zerolog/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("encode response")
	}
}

// writeError answers with the error's user-facing message. The status follows the error kind,
// or the backend's own 4xx status when there is one.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: errors.Message(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrInvalidRequest), errors.Is(err, errors.ErrNoSelection), errors.Is(err, errors.ErrUnsupported):
		return http.StatusBadRequest
	}
	switch errors.KindOf(err) {
	case errors.KindAuth:
		return http.StatusUnauthorized
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindSessionExpired:
		return http.StatusUnauthorized
	}
	if status := apiclient.StatusOf(err); status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Malformed request body"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid id"})
		return 0, false
	}
	return id, true
}
