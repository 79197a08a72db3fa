package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"whisky-collection/internal/model"
	"whisky-collection/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request payloads.
const maxBodyBytes = 1 << 20

// WhiskyHandler handles whisky-related HTTP requests.
type WhiskyHandler struct {
	service service.WhiskyService
	logger  zerolog.Logger
}

// NewWhiskyHandler creates a new whisky handler.
func NewWhiskyHandler(service service.WhiskyService, logger zerolog.Logger) *WhiskyHandler {
	return &WhiskyHandler{
		service: service,
		logger:  logger.With().Str("handler", "whisky").Logger(),
	}
}

// GetAll handles GET /api/whiskies requests.
func (h *WhiskyHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	whiskies, err := h.service.GetAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, whiskies)
}

// GetByID handles GET /api/whiskies/{id} requests.
func (h *WhiskyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	whisky, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, whisky)
}

// Create handles POST /api/whiskies requests.
func (h *WhiskyHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	whisky, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, whisky)
}

// Update handles PUT /api/whiskies/{id} requests.
func (h *WhiskyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	whisky, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, whisky)
}

// Delete handles DELETE /api/whiskies/{id} requests. Unknown IDs still get 204.
func (h *WhiskyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID extracts the {id} route parameter, answering 400 when it is
// missing or not a positive integer.
func (h *WhiskyHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidID, "whisky ID is required", h.logger)
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= model.UnassignedID {
		writeDomainError(w, r, model.ErrInvalidID, h.logger)
		return 0, false
	}

	return id, true
}

// decodeBody reads a WhiskyRequest, answering 400 on an empty or malformed body.
func (h *WhiskyHandler) decodeBody(w http.ResponseWriter, r *http.Request) (*model.WhiskyRequest, bool) {
	var req model.WhiskyRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		message := "invalid request body"
		if errors.Is(err, io.EOF) {
			message = "request body is required"
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, message, h.logger)
		return nil, false
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "unexpected data after request body", h.logger)
		return nil, false
	}

	return &req, true
}
