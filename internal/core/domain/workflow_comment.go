package domain

import "time"

// Decision is the catchment chairperson's final verdict on an application.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Prefixes of the comments written for decisions. DecisionPrefix marks a decision saved at
// stage 4 before the batch commits.
const (
	RejectionReasonPrefix = "REJECTION REASON: "
	DecisionPrefix        = "DECISION: "
	FinalDecisionPrefix   = "FINAL DECISION: "
)

// IsValid reports whether d is a known decision.
func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// WorkflowComment is a reviewer's persisted remark at a given stage.
// UserType is captured at write time and never changes afterwards.
type WorkflowComment struct {
	CommentID         string     `json:"commentID"`
	ApplicationID     string     `json:"applicationID"` // FK -> permit_applications.id
	UserID            string     `json:"userId"`
	UserType          UserRole   `json:"userType"`
	Comment           string     `json:"comment"`
	Stage             Stage      `json:"stage"`
	Decision          *Decision  `json:"decision,omitempty"`
	IsRejectionReason bool       `json:"isRejectionReason"`
	Timestamp         time.Time  `json:"timestamp"`
	EditedBy          *string    `json:"editedBy,omitempty"` // set only by override edits
	EditedAt          *time.Time `json:"editedAt,omitempty"`
}
