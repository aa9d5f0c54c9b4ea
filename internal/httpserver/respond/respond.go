// Package respond writes JSON bodies and maps domain errors to HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/printshare/internal/domain"
)

// ErrorBody is the shape of every failure response.
type ErrorBody struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindForbiddenOrigin:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindBackendUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindPrinterNotFound:
		return http.StatusNotFound
	case domain.KindSubmissionFailed:
		return http.StatusBadGateway
	case domain.KindAdvertisementConflict:
		return http.StatusConflict
	case domain.KindMalformedPayload:
		return http.StatusBadRequest
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindRouteNotFound:
		return http.StatusNotFound
	case domain.KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"kind","message"}. Oversized bodies become 413.
// Internal errors do not leak their cause to the client.
func Error(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		kind, status = domain.KindMalformedPayload, http.StatusRequestEntityTooLarge
	}
	if kind == domain.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="printshare"`)
	}

	msg := domain.MessageOf(err)
	if kind == domain.KindInternal {
		msg = http.StatusText(status)
	}
	JSON(w, status, ErrorBody{Kind: kind, Message: msg})
}
