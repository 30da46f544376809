package services

import "errors"

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrValidation      = errors.New("validation failed")
	ErrUpstream        = errors.New("upstream failure")
	ErrMigrationFailed = errors.New("migration failed")
	ErrRateLimited     = errors.New("rate limited")
)

// DomainError is a user-facing failure of a given kind.
type DomainError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *DomainError) Is(target error) bool {
	return target == e.Kind
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func newError(kind error, detail string) *DomainError {
	return &DomainError{Kind: kind, Detail: detail}
}

func wrapError(kind error, detail string, err error) *DomainError {
	return &DomainError{Kind: kind, Detail: detail, Err: err}
}

var (
	ErrConversationClosed  = newError(ErrConflict, "The chat has been ended.")
	ErrIncompleteData      = newError(ErrValidation, "Incomplete summary data")
	ErrMissingSession      = newError(ErrValidation, "session_id is required")
	ErrNoEligibleSummaries = newError(ErrNotFound, "No selected summaries found for migration")
	ErrInvalidOrExpired    = newError(ErrUnauthorized, "Invalid or expired token")
	ErrInvalidFileType     = newError(ErrValidation, "Invalid file type. Allowed types are: jpeg, jpg, png")
	ErrFileTooLarge        = newError(ErrValidation, "File size too large. Maximum size is 5MB.")
	ErrEmailTaken          = newError(ErrConflict, "Email already registered")
	ErrInvalidCredentials  = newError(ErrUnauthorized, "Invalid credentials")
	ErrPasswordMismatch    = newError(ErrValidation, "Passwords do not match")
)

// Detail returns the human readable part of err, or "" when err carries none.
func Detail(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Detail
	}
	return ""
}
