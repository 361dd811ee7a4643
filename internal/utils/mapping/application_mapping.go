package mapping

import (
	"database/sql"
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/SscSPs/water_permits_app/internal/models"
)

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// ToModelPermitApplication converts a domain PermitApplication to a model PermitApplication.
// Comments are stored separately and are not part of the row.
func ToModelPermitApplication(d domain.PermitApplication) models.PermitApplication {
	return models.PermitApplication{
		ID:              d.ID,
		ApplicationID:   d.ApplicationID,
		ApplicantName:   d.ApplicantName,
		PhysicalAddress: d.PhysicalAddress,
		PermitType:      string(d.PermitType),
		WaterSource:     string(d.WaterSource),
		WaterAllocation: d.WaterAllocation,
		LandSize:        d.LandSize,
		IntendedUse:     d.IntendedUse,
		Status:          string(d.Status),
		CurrentStage:    int(d.CurrentStage),
		SubmittedAt:     toNullTime(d.SubmittedAt),
		ApprovedAt:      toNullTime(d.ApprovedAt),
		RejectedAt:      toNullTime(d.RejectedAt),
		AuditFields:     models.AuditFields(d.AuditFields),
	}
}

// ToDomainPermitApplication converts a model PermitApplication to a domain PermitApplication
func ToDomainPermitApplication(m models.PermitApplication) domain.PermitApplication {
	return domain.PermitApplication{
		ID:              m.ID,
		ApplicationID:   m.ApplicationID,
		ApplicantName:   m.ApplicantName,
		PhysicalAddress: m.PhysicalAddress,
		PermitType:      domain.PermitType(m.PermitType),
		WaterSource:     domain.WaterSource(m.WaterSource),
		WaterAllocation: m.WaterAllocation,
		LandSize:        m.LandSize,
		IntendedUse:     m.IntendedUse,
		Status:          domain.ApplicationStatus(m.Status),
		CurrentStage:    domain.Stage(m.CurrentStage),
		SubmittedAt:     fromNullTime(m.SubmittedAt),
		ApprovedAt:      fromNullTime(m.ApprovedAt),
		RejectedAt:      fromNullTime(m.RejectedAt),
		AuditFields:     domain.AuditFields(m.AuditFields),
	}
}

// ToModelWorkflowComment converts a domain WorkflowComment to a model WorkflowComment
func ToModelWorkflowComment(d domain.WorkflowComment) models.WorkflowComment {
	var decision sql.NullString
	if d.Decision != nil {
		decision = sql.NullString{String: string(*d.Decision), Valid: true}
	}
	return models.WorkflowComment{
		CommentID:         d.CommentID,
		ApplicationID:     d.ApplicationID,
		UserID:            d.UserID,
		UserType:          string(d.UserType),
		Comment:           d.Comment,
		Stage:             int(d.Stage),
		Decision:          decision,
		IsRejectionReason: d.IsRejectionReason,
		CreatedAt:         d.Timestamp,
		EditedBy:          toNullString(d.EditedBy),
		EditedAt:          toNullTime(d.EditedAt),
	}
}

// ToDomainWorkflowComment converts a model WorkflowComment to a domain WorkflowComment
func ToDomainWorkflowComment(m models.WorkflowComment) domain.WorkflowComment {
	var decision *domain.Decision
	if m.Decision.Valid {
		d := domain.Decision(m.Decision.String)
		decision = &d
	}
	return domain.WorkflowComment{
		CommentID:         m.CommentID,
		ApplicationID:     m.ApplicationID,
		UserID:            m.UserID,
		UserType:          domain.UserRole(m.UserType),
		Comment:           m.Comment,
		Stage:             domain.Stage(m.Stage),
		Decision:          decision,
		IsRejectionReason: m.IsRejectionReason,
		Timestamp:         m.CreatedAt,
		EditedBy:          fromNullString(m.EditedBy),
		EditedAt:          fromNullTime(m.EditedAt),
	}
}

// ToDomainWorkflowCommentSlice converts a slice of model comments to domain comments
func ToDomainWorkflowCommentSlice(ms []models.WorkflowComment) []domain.WorkflowComment {
	ds := make([]domain.WorkflowComment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainWorkflowComment(m)
	}
	return ds
}
