package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
)

// ApplicationReader defines read operations for permit applications
type ApplicationReader interface {
	// FindApplicationByID retrieves an application with its workflow comments.
	FindApplicationByID(ctx context.Context, id string) (*domain.PermitApplication, error)

	// GetApplicationsByStage returns every application currently at stage, oldest submission first.
	GetApplicationsByStage(ctx context.Context, stage domain.Stage) ([]domain.PermitApplication, error)

	// ListDecided returns approved and rejected applications, most recent decision first.
	ListDecided(ctx context.Context, limit int) ([]domain.PermitApplication, error)

	// NextApplicationNumber returns the next sequence number used for human readable ids.
	NextApplicationNumber(ctx context.Context) (int64, error)
}

// ApplicationWriter defines write operations for permit applications
type ApplicationWriter interface {
	// CreateApplication persists a new application.
	CreateApplication(ctx context.Context, app domain.PermitApplication) error

	// UpdateApplication applies patch to the application and returns the stored result.
	// When patch.ExpectedStage is set and differs from the stored stage it returns
	// apperrors.ErrStaleStage and changes nothing.
	UpdateApplication(ctx context.Context, id string, patch domain.ApplicationPatch) (*domain.PermitApplication, error)

	// AppendComment appends a workflow comment to an application.
	AppendComment(ctx context.Context, appID string, comment domain.WorkflowComment) (*domain.WorkflowComment, error)

	// RetractComment removes a comment appended by a unit of work that is being rolled back.
	// It is never used to delete a comment that was part of a reported success.
	RetractComment(ctx context.Context, appID, commentID string) error
}

// CommentReader defines read operations for workflow comments
type CommentReader interface {
	// ListComments returns an application's comments in the order they were written.
	ListComments(ctx context.Context, appID string) ([]domain.WorkflowComment, error)

	// FindCommentByID retrieves a single comment.
	FindCommentByID(ctx context.Context, commentID string) (*domain.WorkflowComment, error)
}

// CommentWriter defines override edits of existing comments
type CommentWriter interface {
	// UpdateCommentText replaces a comment's text and records who edited it.
	UpdateCommentText(ctx context.Context, commentID, text, editedBy string, editedAt time.Time) (*domain.WorkflowComment, error)
}

// ApplicationRepositoryFacade combines all application-related repository interfaces
type ApplicationRepositoryFacade interface {
	ApplicationReader
	ApplicationWriter
	CommentReader
	CommentWriter
}
