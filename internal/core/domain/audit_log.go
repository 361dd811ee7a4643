package domain

import "time"

// AuditAction enumerates the actions written to the audit log.
type AuditAction string

const (
	ActionCreatedApplication   AuditAction = "Created Application"
	ActionSubmittedApplication AuditAction = "Submitted Application"
	ActionMarkedReviewed       AuditAction = "Marked as Reviewed"
	ActionUnmarkedReview       AuditAction = "Unmarked Review"
	ActionSavedComment         AuditAction = "Saved Comment"
	ActionSavedDecision        AuditAction = "Saved Decision"
	ActionSavedRejectionReason AuditAction = "Saved Rejection Reason"
	ActionOverrideCommentEdit  AuditAction = "Override Comment Edit"
	ActionAdvancedApplication  AuditAction = "Advanced Application"
	ActionApprovedApplication  AuditAction = "Approved Application"
	ActionRejectedApplication  AuditAction = "Rejected Application"
	ActionBatchSubmitted       AuditAction = "Batch Submitted"
	ActionLogin                AuditAction = "Login"
)

// AuditLogEntry is an immutable record of an action taken in the system.
type AuditLogEntry struct {
	LogID         string      `json:"logID"`
	UserID        string      `json:"userId"`
	UserType      UserRole    `json:"userType"`
	Action        AuditAction `json:"action"`
	Details       string      `json:"details"`
	ApplicationID *string     `json:"applicationId,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}
