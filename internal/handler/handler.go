package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"marketplace/internal/middleware"
	"marketplace/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

// Response is the success envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// statusByCode maps domain error codes to HTTP status codes.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:          http.StatusBadRequest,
	model.ErrCodeValidation:           http.StatusBadRequest,
	model.ErrCodeEmptyCart:            http.StatusBadRequest,
	model.ErrCodeIncompleteAddress:    http.StatusBadRequest,
	model.ErrCodeProductNotFound:      http.StatusBadRequest,
	model.ErrCodeProductNotActive:     http.StatusBadRequest,
	model.ErrCodeInsufficientStock:    http.StatusBadRequest,
	model.ErrCodeUnauthenticated:      http.StatusUnauthorized,
	model.ErrCodeInvalidCredentials:   http.StatusUnauthorized,
	model.ErrCodeForbidden:            http.StatusForbidden,
	model.ErrCodeOrderNotFound:        http.StatusNotFound,
	model.ErrCodeEmailTaken:           http.StatusConflict,
	model.ErrCodeCheckoutInProgress:   http.StatusConflict,
	model.ErrCodeInvalidTransition:    http.StatusConflict,
	model.ErrCodeUnsupportedMediaType: http.StatusUnsupportedMediaType,
	model.ErrCodePersistenceFailure:   http.StatusInternalServerError,
	model.ErrCodeInternalError:        http.StatusInternalServerError,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeSuccess wraps data in the success envelope.
func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

// writeErrorStatus writes the error envelope with an explicit status code.
func writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	event := logger.Debug()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", code).Str("error", message).Int("status", status).Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Success:   false,
		Error:     code,
		Message:   message,
		RequestID: chimw.GetReqID(r.Context()),
	})
}

// writeError maps err to a status code and writes the error envelope.
// Errors outside the domain taxonomy are logged and reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected error")
		writeErrorStatus(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "An unexpected error occurred", logger)
		return
	}

	status, known := statusByCode[de.Code]
	if !known {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeErrorStatus(w, r, status, de.Code, de.Message, logger)
}

// decodeJSON strictly decodes a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewDomainError(model.ErrCodeInvalidJSON, "Request body is required")
		}
		return model.NewDomainError(model.ErrCodeInvalidJSON, fmt.Sprintf("Invalid request body: %v", err))
	}
	if dec.More() {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Request body must contain a single JSON object")
	}
	return nil
}

// pathID parses a positive integer route parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, model.NewValidationError(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(fmt.Sprintf("invalid %s parameter", name))
	}
	return v, nil
}

// queryID parses an optional positive id query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return nil, model.NewValidationError(fmt.Sprintf("invalid %s parameter", name))
	}
	return &v, nil
}

// page parses limit and offset. Out of range values are clamped by the services.
func page(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// vendorIdentity returns the calling vendor's ids.
func vendorIdentity(r *http.Request) (vendorID, userID int64, err error) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		return 0, 0, model.ErrUnauthenticated
	}
	if identity.VendorID == nil {
		return 0, 0, model.ErrForbidden
	}
	return *identity.VendorID, identity.UserID, nil
}
