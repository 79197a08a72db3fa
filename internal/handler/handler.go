package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"whisky-collection/internal/middleware"
	"whisky-collection/internal/model"

	"github.com/rs/zerolog"
)

const contentTypeJSON = "application/json; charset=utf-8"

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful to tell the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	correlationID := middleware.CorrelationIDFromContext(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Str("error", message).
		Str("code", code).
		Int("status", status).
		Str("correlation_id", correlationID).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: correlationID,
	})
}

// writeDomainError maps a service error onto an HTTP status.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status := http.StatusInternalServerError
	code := model.ErrCodeInternalError
	message := "internal server error"

	switch {
	case errors.Is(err, model.ErrWhiskyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrInvalidID),
		errors.Is(err, model.ErrMissingField),
		errors.Is(err, model.ErrFieldTooLong),
		errors.Is(err, model.ErrInvalidJSON):
		status = http.StatusBadRequest
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
	}

	writeError(w, r, status, code, message, logger)
}
