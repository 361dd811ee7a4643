package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid credentials, or an actor whose role may not
// perform the requested operation.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates an authenticated user lacking the required role.
var ErrForbidden = errors.New("forbidden")

// ErrInternal is returned when the cause should not leak to callers.
var ErrInternal = errors.New("internal error")

// Review workflow errors.
var (
	// ErrEmptyComment is returned when a reviewer saves a blank comment.
	ErrEmptyComment = fmt.Errorf("%w: comment must not be empty", ErrValidation)

	// ErrMissingRejectionReason is returned when a rejection is recorded without a reason.
	ErrMissingRejectionReason = fmt.Errorf("%w: rejection reason is required", ErrValidation)

	// ErrStageLocked is returned when a ledger mutation targets a stage the application already left.
	ErrStageLocked = errors.New("review stage is locked")

	// ErrInvalidTransition is returned for a stage skip or a transition invoked by the wrong role.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrAlreadyAdvanced is returned when a transition's expected stage is stale.
	ErrAlreadyAdvanced = errors.New("application already advanced")

	// ErrStaleStage is returned by stores when a conditional update finds a different stage.
	ErrStaleStage = errors.New("application stage changed concurrently")

	// ErrNotReady is returned when an application lacks its stage's review requirements.
	ErrNotReady = fmt.Errorf("%w: application is not ready", ErrValidation)

	// ErrBatchBlocked is matched by blocked batch submissions.
	ErrBatchBlocked = errors.New("submission blocked")

	// ErrPartialCommit is matched by batch commits that failed part way.
	ErrPartialCommit = errors.New("batch partially committed")
)

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
