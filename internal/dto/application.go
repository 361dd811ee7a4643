package dto

import (
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateApplicationRequest defines the data needed to open a new permit application.
type CreateApplicationRequest struct {
	ApplicantName   string             `json:"applicantName" binding:"required,max=255"`
	PhysicalAddress string             `json:"physicalAddress" binding:"required,max=512"`
	PermitType      domain.PermitType  `json:"permitType" binding:"required,oneof=urban irrigation industrial"`
	WaterSource     domain.WaterSource `json:"waterSource" binding:"required,oneof=ground_water surface_water"`
	WaterAllocation decimal.Decimal    `json:"waterAllocation" binding:"positive_decimal"` // ML per annum
	LandSize        decimal.Decimal    `json:"landSize" binding:"nonnegative_decimal"`     // hectares
	IntendedUse     string             `json:"intendedUse" binding:"max=1024"`
}

// ApplicationResponse defines the data returned for a permit application.
type ApplicationResponse struct {
	ID              string                   `json:"id"`
	ApplicationID   string                   `json:"applicationId"`
	ApplicantName   string                   `json:"applicantName"`
	PhysicalAddress string                   `json:"physicalAddress"`
	PermitType      domain.PermitType        `json:"permitType"`
	WaterSource     domain.WaterSource       `json:"waterSource"`
	WaterAllocation decimal.Decimal          `json:"waterAllocation"`
	LandSize        decimal.Decimal          `json:"landSize"`
	IntendedUse     string                   `json:"intendedUse"`
	Status          domain.ApplicationStatus `json:"status"`
	CurrentStage    domain.Stage             `json:"currentStage"`
	SubmittedAt     *time.Time               `json:"submittedAt,omitempty"`
	ApprovedAt      *time.Time               `json:"approvedAt,omitempty"`
	RejectedAt      *time.Time               `json:"rejectedAt,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	CreatedBy       string                   `json:"createdBy"`
}

// CommentResponse defines the data returned for a workflow comment.
type CommentResponse struct {
	CommentID         string           `json:"commentID"`
	UserID            string           `json:"userId"`
	UserType          domain.UserRole  `json:"userType"`
	Comment           string           `json:"comment"`
	Stage             domain.Stage     `json:"stage"`
	Decision          *domain.Decision `json:"decision"`
	IsRejectionReason bool             `json:"isRejectionReason"`
	Timestamp         time.Time        `json:"timestamp"`
	EditedBy          *string          `json:"editedBy,omitempty"`
	EditedAt          *time.Time       `json:"editedAt,omitempty"`
}

// GetApplicationResponse combines an application with its comment history.
type GetApplicationResponse struct {
	Application ApplicationResponse `json:"application"`
	Comments    []CommentResponse   `json:"comments"`
}

// ListApplicationsParams defines query parameters for listing decided applications.
type ListApplicationsParams struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=500"`
}

// ListApplicationsResponse wraps a list of applications.
type ListApplicationsResponse struct {
	Applications []ApplicationResponse `json:"applications"`
}

// ToApplicationResponse converts a domain.PermitApplication to ApplicationResponse DTO.
func ToApplicationResponse(app *domain.PermitApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:              app.ID,
		ApplicationID:   app.ApplicationID,
		ApplicantName:   app.ApplicantName,
		PhysicalAddress: app.PhysicalAddress,
		PermitType:      app.PermitType,
		WaterSource:     app.WaterSource,
		WaterAllocation: app.WaterAllocation,
		LandSize:        app.LandSize,
		IntendedUse:     app.IntendedUse,
		Status:          app.Status,
		CurrentStage:    app.CurrentStage,
		SubmittedAt:     app.SubmittedAt,
		ApprovedAt:      app.ApprovedAt,
		RejectedAt:      app.RejectedAt,
		CreatedAt:       app.CreatedAt,
		CreatedBy:       app.CreatedBy,
	}
}

// ToApplicationResponses converts a slice of domain.PermitApplication to []ApplicationResponse.
func ToApplicationResponses(apps []domain.PermitApplication) []ApplicationResponse {
	responses := make([]ApplicationResponse, len(apps))
	for i := range apps {
		responses[i] = ToApplicationResponse(&apps[i])
	}
	return responses
}

// ToCommentResponse converts a domain.WorkflowComment to CommentResponse DTO.
func ToCommentResponse(c *domain.WorkflowComment) CommentResponse {
	return CommentResponse{
		CommentID:         c.CommentID,
		UserID:            c.UserID,
		UserType:          c.UserType,
		Comment:           c.Comment,
		Stage:             c.Stage,
		Decision:          c.Decision,
		IsRejectionReason: c.IsRejectionReason,
		Timestamp:         c.Timestamp,
		EditedBy:          c.EditedBy,
		EditedAt:          c.EditedAt,
	}
}

// ToCommentResponses converts a slice of domain.WorkflowComment to []CommentResponse.
func ToCommentResponses(comments []domain.WorkflowComment) []CommentResponse {
	responses := make([]CommentResponse, len(comments))
	for i := range comments {
		responses[i] = ToCommentResponse(&comments[i])
	}
	return responses
}
