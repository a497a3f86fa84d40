package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthenticated    = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")

	ErrSweetNotFound     = errors.New("sweet not found")
	ErrInvalidID         = errors.New("invalid sweet id format")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrIdempotencyInFlight = errors.New("idempotency key in use by a request in progress")
	ErrIdempotencyMismatch = errors.New("idempotency key reused with a different quantity")
)

// ValidationError reports input that failed a shape or bounds check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
