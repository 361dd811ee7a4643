package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	"github.com/SscSPs/water_permits_app/internal/models"
	"github.com/SscSPs/water_permits_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxApplicationRepository struct {
	BaseRepository
	q querier
}

// newPgxApplicationRepository creates a new repository for applications and their comments.
func newPgxApplicationRepository(pool *pgxpool.Pool) *PgxApplicationRepository {
	return &PgxApplicationRepository{BaseRepository: BaseRepository{Pool: pool}, q: pool}
}

var (
	_ portsrepo.ApplicationRepositoryFacade = (*PgxApplicationRepository)(nil)
	_ portsrepo.ApplicationTxRunner         = (*PgxApplicationRepository)(nil)
)

const (
	applicationsTable = "permit_applications"
	commentsTable     = "workflow_comments"

	selectApplicationFields = `
		id, application_id, applicant_name, physical_address, permit_type, water_source,
		water_allocation, land_size, intended_use, status, current_stage,
		submitted_at, approved_at, rejected_at,
		created_at, created_by, last_updated_at, last_updated_by
	`

	selectCommentFields = `
		comment_id, application_id, user_id, user_type, comment, stage, decision,
		is_rejection_reason, created_at, edited_by, edited_at
	`

	insertApplicationQuery = `
		INSERT INTO ` + applicationsTable + ` (` + selectApplicationFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	findApplicationByIDQuery = `
		SELECT ` + selectApplicationFields + `
		FROM ` + applicationsTable + `
		WHERE id = $1
	`

	// Terminal applications sit at stage 1 and never appear in a review stage listing.
	findApplicationsByStageQuery = `
		SELECT ` + selectApplicationFields + `
		FROM ` + applicationsTable + `
		WHERE current_stage = $1 AND status NOT IN ('approved', 'rejected')
		ORDER BY COALESCE(submitted_at, created_at), application_id
	`

	listDecidedQuery = `
		SELECT ` + selectApplicationFields + `
		FROM ` + applicationsTable + `
		WHERE status IN ('approved', 'rejected')
		ORDER BY COALESCE(approved_at, rejected_at, last_updated_at) DESC
		LIMIT $1
	`

	// A NULL $10 skips the stage check. ClearDecision ($7) wins over new decision timestamps.
	updateApplicationQuery = `
		UPDATE ` + applicationsTable + `
		SET
			current_stage = COALESCE($2::int, current_stage),
			status = COALESCE($3::text, status),
			submitted_at = COALESCE($4::timestamptz, submitted_at),
			approved_at = CASE WHEN $7::boolean THEN NULL ELSE COALESCE($5::timestamptz, approved_at) END,
			rejected_at = CASE WHEN $7::boolean THEN NULL ELSE COALESCE($6::timestamptz, rejected_at) END,
			last_updated_at = $8,
			last_updated_by = $9
		WHERE id = $1 AND ($10::int IS NULL OR current_stage = $10::int)
		RETURNING ` + selectApplicationFields

	currentStageQuery = `SELECT current_stage FROM ` + applicationsTable + ` WHERE id = $1`

	nextApplicationNumberQuery = `SELECT nextval('application_number_seq')`

	insertCommentQuery = `
		INSERT INTO ` + commentsTable + ` (` + selectCommentFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + selectCommentFields

	deleteCommentQuery = `
		DELETE FROM ` + commentsTable + `
		WHERE comment_id = $1 AND application_id = $2
	`

	listCommentsQuery = `
		SELECT ` + selectCommentFields + `
		FROM ` + commentsTable + `
		WHERE application_id = ANY($1)
		ORDER BY created_at, comment_id
	`

	findCommentByIDQuery = `
		SELECT ` + selectCommentFields + `
		FROM ` + commentsTable + `
		WHERE comment_id = $1
	`

	updateCommentTextQuery = `
		UPDATE ` + commentsTable + `
		SET comment = $2, edited_by = $3, edited_at = $4
		WHERE comment_id = $1
		RETURNING ` + selectCommentFields
)

func scanApplication(row pgx.Row) (models.PermitApplication, error) {
	var m models.PermitApplication
	err := row.Scan(
		&m.ID,
		&m.ApplicationID,
		&m.ApplicantName,
		&m.PhysicalAddress,
		&m.PermitType,
		&m.WaterSource,
		&m.WaterAllocation,
		&m.LandSize,
		&m.IntendedUse,
		&m.Status,
		&m.CurrentStage,
		&m.SubmittedAt,
		&m.ApprovedAt,
		&m.RejectedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanComment(row pgx.Row) (models.WorkflowComment, error) {
	var m models.WorkflowComment
	err := row.Scan(
		&m.CommentID,
		&m.ApplicationID,
		&m.UserID,
		&m.UserType,
		&m.Comment,
		&m.Stage,
		&m.Decision,
		&m.IsRejectionReason,
		&m.CreatedAt,
		&m.EditedBy,
		&m.EditedAt,
	)
	return m, err
}

// RunInTx runs fn against a copy of the repository bound to a single transaction. The
// transaction commits only when fn returns nil.
func (r *PgxApplicationRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, w portsrepo.ApplicationWriter) error) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer r.rollback(ctx, tx)

	txRepo := &PgxApplicationRepository{BaseRepository: r.BaseRepository, q: tx}
	if err := fn(ctx, txRepo); err != nil {
		return err
	}
	return r.commit(ctx, tx)
}

func (r *PgxApplicationRepository) CreateApplication(ctx context.Context, app domain.PermitApplication) error {
	m := mapping.ToModelPermitApplication(app)
	_, err := r.q.Exec(ctx, insertApplicationQuery,
		m.ID,
		m.ApplicationID,
		m.ApplicantName,
		m.PhysicalAddress,
		m.PermitType,
		m.WaterSource,
		m.WaterAllocation,
		m.LandSize,
		m.IntendedUse,
		m.Status,
		m.CurrentStage,
		m.SubmittedAt,
		m.ApprovedAt,
		m.RejectedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: application %s already exists", apperrors.ErrDuplicate, m.ApplicationID)
		}
		return fmt.Errorf("failed to save application %s: %w", m.ID, err)
	}
	return nil
}

func (r *PgxApplicationRepository) FindApplicationByID(ctx context.Context, id string) (*domain.PermitApplication, error) {
	m, err := scanApplication(r.q.QueryRow(ctx, findApplicationByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: application %s", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find application %s: %w", id, err)
	}
	apps, err := r.attachComments(ctx, []models.PermitApplication{m})
	if err != nil {
		return nil, err
	}
	return &apps[0], nil
}

func (r *PgxApplicationRepository) GetApplicationsByStage(ctx context.Context, stage domain.Stage) ([]domain.PermitApplication, error) {
	return r.queryApplications(ctx, findApplicationsByStageQuery, int(stage))
}

func (r *PgxApplicationRepository) ListDecided(ctx context.Context, limit int) ([]domain.PermitApplication, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.queryApplications(ctx, listDecidedQuery, limit)
}

func (r *PgxApplicationRepository) queryApplications(ctx context.Context, query string, args ...any) ([]domain.PermitApplication, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var ms []models.PermitApplication
	for rows.Next() {
		m, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		ms = append(ms, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", rows.Err())
	}
	return r.attachComments(ctx, ms)
}

// attachComments loads the comments of every application with one query.
func (r *PgxApplicationRepository) attachComments(ctx context.Context, ms []models.PermitApplication) ([]domain.PermitApplication, error) {
	apps := make([]domain.PermitApplication, len(ms))
	if len(ms) == 0 {
		return apps, nil
	}
	ids := make([]string, len(ms))
	index := make(map[string]int, len(ms))
	for i, m := range ms {
		apps[i] = mapping.ToDomainPermitApplication(m)
		ids[i] = m.ID
		index[m.ID] = i
	}

	comments, err := r.listComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		i := index[c.ApplicationID]
		apps[i].WorkflowComments = append(apps[i].WorkflowComments, c)
	}
	return apps, nil
}

func (r *PgxApplicationRepository) NextApplicationNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, nextApplicationNumberQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to allocate application number: %w", err)
	}
	return n, nil
}

func (r *PgxApplicationRepository) UpdateApplication(ctx context.Context, id string, patch domain.ApplicationPatch) (*domain.PermitApplication, error) {
	var stage, expected *int
	if patch.Stage != nil {
		v := int(*patch.Stage)
		stage = &v
	}
	if patch.ExpectedStage != nil {
		v := int(*patch.ExpectedStage)
		expected = &v
	}
	var status *string
	if patch.Status != nil {
		v := string(*patch.Status)
		status = &v
	}

	m, err := scanApplication(r.q.QueryRow(ctx, updateApplicationQuery,
		id,
		stage,
		status,
		patch.SubmittedAt,
		patch.ApprovedAt,
		patch.RejectedAt,
		patch.ClearDecision,
		patch.UpdatedAt,
		patch.UpdatedBy,
		expected,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.missedUpdate(ctx, id, patch.ExpectedStage)
		}
		return nil, fmt.Errorf("failed to update application %s: %w", id, err)
	}
	apps, err := r.attachComments(ctx, []models.PermitApplication{m})
	if err != nil {
		return nil, err
	}
	return &apps[0], nil
}

// missedUpdate tells a missing application apart from one that moved off the expected stage.
func (r *PgxApplicationRepository) missedUpdate(ctx context.Context, id string, expected *domain.Stage) error {
	var current int
	err := r.q.QueryRow(ctx, currentStageQuery, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: application %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read stage of application %s: %w", id, err)
	}
	if expected == nil {
		return fmt.Errorf("application %s was not updated", id)
	}
	return fmt.Errorf("%w: application %s is at stage %d, expected %d", apperrors.ErrStaleStage, id, current, *expected)
}

func (r *PgxApplicationRepository) AppendComment(ctx context.Context, appID string, comment domain.WorkflowComment) (*domain.WorkflowComment, error) {
	comment.ApplicationID = appID
	m := mapping.ToModelWorkflowComment(comment)
	saved, err := scanComment(r.q.QueryRow(ctx, insertCommentQuery,
		m.CommentID,
		m.ApplicationID,
		m.UserID,
		m.UserType,
		m.Comment,
		m.Stage,
		m.Decision,
		m.IsRejectionReason,
		m.CreatedAt,
		m.EditedBy,
		m.EditedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to append comment to application %s: %w", appID, err)
	}
	c := mapping.ToDomainWorkflowComment(saved)
	return &c, nil
}

func (r *PgxApplicationRepository) RetractComment(ctx context.Context, appID, commentID string) error {
	tag, err := r.q.Exec(ctx, deleteCommentQuery, commentID, appID)
	if err != nil {
		return fmt.Errorf("failed to retract comment %s: %w", commentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: comment %s", apperrors.ErrNotFound, commentID)
	}
	return nil
}

func (r *PgxApplicationRepository) ListComments(ctx context.Context, appID string) ([]domain.WorkflowComment, error) {
	return r.listComments(ctx, []string{appID})
}

func (r *PgxApplicationRepository) listComments(ctx context.Context, appIDs []string) ([]domain.WorkflowComment, error) {
	rows, err := r.q.Query(ctx, listCommentsQuery, appIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var ms []models.WorkflowComment
	for rows.Next() {
		m, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		ms = append(ms, m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", rows.Err())
	}
	return mapping.ToDomainWorkflowCommentSlice(ms), nil
}

func (r *PgxApplicationRepository) FindCommentByID(ctx context.Context, commentID string) (*domain.WorkflowComment, error) {
	m, err := scanComment(r.q.QueryRow(ctx, findCommentByIDQuery, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: comment %s", apperrors.ErrNotFound, commentID)
		}
		return nil, fmt.Errorf("failed to find comment %s: %w", commentID, err)
	}
	c := mapping.ToDomainWorkflowComment(m)
	return &c, nil
}

func (r *PgxApplicationRepository) UpdateCommentText(ctx context.Context, commentID, text, editedBy string, editedAt time.Time) (*domain.WorkflowComment, error) {
	m, err := scanComment(r.q.QueryRow(ctx, updateCommentTextQuery, commentID, text, editedBy, editedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: comment %s", apperrors.ErrNotFound, commentID)
		}
		return nil, fmt.Errorf("failed to edit comment %s: %w", commentID, err)
	}
	c := mapping.ToDomainWorkflowComment(m)
	return &c, nil
}
