// Package http exposes a [parley.SessionService] as a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fwojciec/parley"
)

// Error codes for failures detected by the router itself.
const (
	ECodeInvalidRequest   = "invalid_request"
	ECodeRequestTooLarge  = "request_too_large"
	ECodeNotFound         = "not_found"
	ECodeMethodNotAllowed = "method_not_allowed"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every failed request. Detail is safe to show
// to end users; Kind is stable for programmatic handling.
type errorResponse struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind"`
}

// errorStatus maps error codes to HTTP status codes.
var errorStatus = map[string]int{
	parley.ECodeSessionNotFound: http.StatusBadRequest,
	parley.ECodeInvalidModel:    http.StatusUnprocessableEntity,
	ECodeInvalidRequest:         http.StatusBadRequest,
	ECodeRequestTooLarge:        http.StatusRequestEntityTooLarge,
	ECodeNotFound:               http.StatusNotFound,
	ECodeMethodNotAllowed:       http.StatusMethodNotAllowed,
	parley.ECodeProvider:        http.StatusInternalServerError,
	parley.ECodeInternal:        http.StatusInternalServerError,
}

// errorDetail maps error codes to client-facing messages. Upstream error text
// never reaches clients.
var errorDetail = map[string]string{
	parley.ECodeSessionNotFound: "Invalid client_id",
	parley.ECodeInvalidModel:    "Invalid model",
	ECodeInvalidRequest:         "Invalid request body",
	ECodeRequestTooLarge:        "Request body too large",
	ECodeNotFound:               "Not Found",
	ECodeMethodNotAllowed:       "Method Not Allowed",
	parley.ECodeProvider:        "Internal Server Error",
	parley.ECodeInternal:        "Internal Server Error",
}

// invalidRequestError wraps JSON decoding failures.
type invalidRequestError struct{ err error }

func (e *invalidRequestError) Error() string { return "invalid request: " + e.err.Error() }
func (e *invalidRequestError) Unwrap() error { return e.err }

// routeError reports a request no route accepts.
type routeError struct{ code string }

func (e *routeError) Error() string { return e.code }

func errorCode(err error) string {
	var re *routeError
	if errors.As(err, &re) {
		return re.code
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return ECodeRequestTooLarge
	}
	var ire *invalidRequestError
	if errors.As(err, &ire) {
		return ECodeInvalidRequest
	}
	return parley.ErrorCode(err)
}

// Error writes err as a JSON error response and logs server-side failures
// with their cause.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := errorCode(err)
	status, ok := errorStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", code, "error", err)
	}
	writeJSON(w, status, errorResponse{Detail: errorDetail[code], Kind: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &invalidRequestError{err: err}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
