package dto

import "net/http"

// Error codes shared between the domain layer and HTTP responses
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeConflict is used for duplicate unique keys
	ErrCodeConflict = "ALREADY_EXISTS"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes missing from the table fall back to 500.
var errorCodeHTTPStatus = map[string]int{
	// input and validation errors -> 400
	ErrCodeBadRequest:     http.StatusBadRequest,
	"INVALID_INPUT":       http.StatusBadRequest,
	"INVALID_EMAIL":       http.StatusBadRequest,
	"INVALID_PASSWORD":    http.StatusBadRequest,
	"INVALID_ROLE":        http.StatusBadRequest,
	"INVALID_REGISTER_NO": http.StatusBadRequest,
	"INVALID_DEPARTMENT":  http.StatusBadRequest,
	"INVALID_YEAR":        http.StatusBadRequest,
	"INVALID_NAME":        http.StatusBadRequest,
	"INVALID_FEE_ID":      http.StatusBadRequest,
	"INVALID_FEE_TYPE":    http.StatusBadRequest,
	"INVALID_AMOUNT":      http.StatusBadRequest,
	"INVALID_PAYMENT":     http.StatusBadRequest,
	"INVALID_DOCUMENT":    http.StatusBadRequest,
	"REASON_REQUIRED":     http.StatusBadRequest,

	// auth errors -> 401 / 403
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,

	// resource errors
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeConflict:        http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// business rule violations -> 422
	"INVALID_STATE":       http.StatusUnprocessableEntity,
	"FROZEN":              http.StatusUnprocessableEntity,
	"REGISTRATION_CLOSED": http.StatusUnprocessableEntity,

	ErrCodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
