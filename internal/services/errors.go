package services

import "fmt"

type ErrorCode string

const (
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrDuplicateIdentity ErrorCode = "DUPLICATE_IDENTITY"
	ErrCapacityExceeded  ErrorCode = "CAPACITY_EXCEEDED"
	ErrInvalidCode       ErrorCode = "INVALID_CODE"
	ErrAlreadyRedeemed   ErrorCode = "ALREADY_REDEEMED"
	ErrForbidden         ErrorCode = "FORBIDDEN"
	ErrConflict          ErrorCode = "CONFLICT"
	ErrAlreadyIssued     ErrorCode = "ALREADY_ISSUED"
	ErrInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrDatabaseError     ErrorCode = "DATABASE_ERROR"
)

// ServiceError is the typed failure every service returns. Code drives
// the HTTP status mapping in handlers; Payload carries structured detail
// for the UI (e.g. current count and limit on capacity rejections).
type ServiceError struct {
	Message string                 `json:"message"`
	Code    ErrorCode              `json:"code"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Details error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Message, e.Code, e.Details)
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Code)
}

func (e *ServiceError) Unwrap() error {
	return e.Details
}

func NewServiceError(message string, code ErrorCode, details error) *ServiceError {
	return &ServiceError{
		Message: message,
		Code:    code,
		Details: details,
	}
}

func ErrorCodeOf(err error) ErrorCode {
	if serr, ok := err.(*ServiceError); ok {
		return serr.Code
	}
	return ""
}
