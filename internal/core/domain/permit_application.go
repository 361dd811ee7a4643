package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationStatus indicates the lifecycle state of a permit application.
type ApplicationStatus string

const (
	StatusUnsubmitted ApplicationStatus = "unsubmitted"
	StatusSubmitted   ApplicationStatus = "submitted"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
)

// IsTerminal reports whether the status is a final decision.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Stage is a position in the review pipeline.
type Stage int

const (
	StageDraft                Stage = 0
	StageOfficerDesk          Stage = 1
	StageChairperson          Stage = 2
	StageCatchmentManager     Stage = 3
	StageCatchmentChairperson Stage = 4
)

// IsReviewStage reports whether s is one of the reviewer stages (2, 3 or 4).
func (s Stage) IsReviewStage() bool {
	return s >= StageChairperson && s <= StageCatchmentChairperson
}

// IsValid reports whether s lies within the pipeline.
func (s Stage) IsValid() bool {
	return s >= StageDraft && s <= StageCatchmentChairperson
}

// PermitType classifies the intended water use.
type PermitType string

const (
	PermitUrban      PermitType = "urban"
	PermitIrrigation PermitType = "irrigation"
	PermitIndustrial PermitType = "industrial"
)

// WaterSource identifies where water is abstracted from.
type WaterSource string

const (
	GroundWater  WaterSource = "ground_water"
	SurfaceWater WaterSource = "surface_water"
)

// PermitApplication is a water permit application moving through review.
type PermitApplication struct {
	ID               string            `json:"id"`            // Primary Key (UUID)
	ApplicationID    string            `json:"applicationId"` // Human readable, immutable
	ApplicantName    string            `json:"applicantName"`
	PhysicalAddress  string            `json:"physicalAddress"`
	PermitType       PermitType        `json:"permitType"`
	WaterSource      WaterSource       `json:"waterSource"`
	WaterAllocation  decimal.Decimal   `json:"waterAllocation"` // ML per annum
	LandSize         decimal.Decimal   `json:"landSize"`        // hectares
	IntendedUse      string            `json:"intendedUse"`
	Status           ApplicationStatus `json:"status"`
	CurrentStage     Stage             `json:"currentStage"`
	SubmittedAt      *time.Time        `json:"submittedAt,omitempty"`
	ApprovedAt       *time.Time        `json:"approvedAt,omitempty"`
	RejectedAt       *time.Time        `json:"rejectedAt,omitempty"`
	WorkflowComments []WorkflowComment `json:"workflowComments,omitempty"`
	AuditFields
}

// ApplicationPatch describes a conditional update of an application's workflow position.
// ExpectedStage, when set, makes the update fail with apperrors.ErrStaleStage if the stored
// stage differs.
type ApplicationPatch struct {
	ExpectedStage *Stage
	Stage         *Stage
	Status        *ApplicationStatus
	SubmittedAt   *time.Time
	ApprovedAt    *time.Time
	RejectedAt    *time.Time
	ClearDecision bool // resets ApprovedAt and RejectedAt; used when undoing a decision
	UpdatedBy     string
	UpdatedAt     time.Time
}

// Apply copies the set fields of p onto app.
func (p ApplicationPatch) Apply(app *PermitApplication) {
	if p.Stage != nil {
		app.CurrentStage = *p.Stage
	}
	if p.Status != nil {
		app.Status = *p.Status
	}
	if p.SubmittedAt != nil {
		app.SubmittedAt = p.SubmittedAt
	}
	if p.ApprovedAt != nil {
		app.ApprovedAt = p.ApprovedAt
	}
	if p.RejectedAt != nil {
		app.RejectedAt = p.RejectedAt
	}
	if p.ClearDecision {
		app.ApprovedAt = nil
		app.RejectedAt = nil
	}
	app.Touch(p.UpdatedBy, p.UpdatedAt)
}
