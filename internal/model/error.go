package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeMissingField     = "MISSING_FIELD"
	ErrCodeFieldTooLong     = "FIELD_TOO_LONG"
	ErrCodeInvalidID        = "INVALID_ID"
	ErrCodeWhiskyNotFound   = "WHISKY_NOT_FOUND"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidJSON      = NewDomainError(ErrCodeInvalidJSON, "Request body must be a JSON object")
	ErrMissingField     = NewDomainError(ErrCodeMissingField, "Both name and origin are required")
	ErrFieldTooLong     = NewDomainError(ErrCodeFieldTooLong, "Name and origin must be at most 100 characters")
	ErrInvalidID        = NewDomainError(ErrCodeInvalidID, "Whisky ID must be a positive integer")
	ErrWhiskyNotFound   = NewDomainError(ErrCodeWhiskyNotFound, "Whisky not found")
	ErrStoreUnavailable = NewDomainError(ErrCodeStoreUnavailable, "Whisky store is unavailable")
)
