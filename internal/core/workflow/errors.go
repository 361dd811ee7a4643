package workflow

import (
	"fmt"
	"strings"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
)

// BatchBlockedError is the expected outcome of submitting an incomplete batch. Nothing was
// changed; Blocked lists every application that is not ready and what it lacks.
type BatchBlockedError struct {
	Stage   domain.Stage
	Total   int
	Ready   int
	Blocked []domain.Readiness
}

func (e *BatchBlockedError) Error() string {
	if e.Total == 0 {
		return fmt.Sprintf("submission blocked: no applications pending at stage %d", e.Stage)
	}
	msg := fmt.Sprintf("submission blocked: %d of %d applications ready at stage %d", e.Ready, e.Total, e.Stage)
	if refs := e.BlockedReferences(); len(refs) > 0 {
		msg += " (incomplete: " + strings.Join(refs, ", ") + ")"
	}
	return msg
}

func (e *BatchBlockedError) Unwrap() error {
	return apperrors.ErrBatchBlocked
}

// BlockedIDs returns the ids of the blocked applications.
func (e *BatchBlockedError) BlockedIDs() []string {
	ids := make([]string, len(e.Blocked))
	for i, b := range e.Blocked {
		ids[i] = b.ApplicationID
	}
	return ids
}

// BlockedReferences returns the human readable numbers of the blocked applications, falling
// back to the id when no number is known.
func (e *BatchBlockedError) BlockedReferences() []string {
	refs := make([]string, len(e.Blocked))
	for i, b := range e.Blocked {
		refs[i] = b.Reference
		if refs[i] == "" {
			refs[i] = b.ApplicationID
		}
	}
	return refs
}

// NewBatchBlockedError builds the error from a batch readiness report.
func NewBatchBlockedError(b domain.BatchReadiness) *BatchBlockedError {
	return &BatchBlockedError{
		Stage:   b.Stage,
		Total:   b.Total,
		Ready:   b.Ready,
		Blocked: b.Blocked(),
	}
}

// PartialCommitError reports a batch commit that could not be completed. Succeeded holds ids
// that remain transitioned and must not be retried; Failed holds ids still at the batch stage.
type PartialCommitError struct {
	Stage     domain.Stage
	Succeeded []string
	Failed    []string
	Cause     error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("batch at stage %d partially committed (%d succeeded, %d failed): %v",
		e.Stage, len(e.Succeeded), len(e.Failed), e.Cause)
}

func (e *PartialCommitError) Unwrap() []error {
	return []error{apperrors.ErrPartialCommit, e.Cause}
}
