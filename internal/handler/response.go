package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"error": "Student not found"}
//
// The message is always safe to show a user. Internal causes are logged
// and replaced with a generic message.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/student-roster/internal/apperror"
)

const (
	MsgInternal         = "Internal server error"
	MsgInvalidBody      = "Invalid request body"
	MsgStudentMissing   = "Student not found"
	MsgRouteNotFound    = "Route not found"
	MsgMethodNotAllowed = "Method not allowed"
)

// maxBodyBytes caps request bodies; roster payloads are a few hundred bytes.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of writes that return no resource.
type MessageResponse struct {
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written; changes after
// the first Write are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation, ErrDuplicateEmail        → 400
//	ErrInvalidCredentials, ErrNo/InvalidToken → 401
//	ErrNotFound                             → 404
//	anything else (storage faults)          → 500, cause logged not sent
//
// errors.Is walks the whole chain, so services can wrap freely:
//
//	fmt.Errorf("service/student: creating: %w", apperror.DuplicateEmail(...))
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation),
			errors.Is(err, apperror.ErrDuplicateEmail):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrInvalidCredentials),
			errors.Is(err, apperror.ErrNoToken),
			errors.Is(err, apperror.ErrInvalidToken):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{Error: appErr.Message})
			return
		}
	}

	// NEVER expose internal error details: the raw message can contain SQL,
	// file paths or constraint names.
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("requestID", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: MsgInternal})
}

// HandleNotFound answers unrouted paths with the JSON error envelope.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: MsgRouteNotFound})
}

// HandleMethodNotAllowed answers a known path called with the wrong method.
func HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: MsgMethodNotAllowed})
}

// decodeJSON reads the request body into dst. A malformed or oversized body
// is reported to the client as 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("", MsgInvalidBody)
	}
	return nil
}
