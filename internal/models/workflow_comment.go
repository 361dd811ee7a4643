package models

import (
	"database/sql"
	"time"
)

// WorkflowComment is a row of the workflow_comments table.
type WorkflowComment struct {
	CommentID         string         `db:"comment_id"`
	ApplicationID     string         `db:"application_id"`
	UserID            string         `db:"user_id"`
	UserType          string         `db:"user_type"`
	Comment           string         `db:"comment"`
	Stage             int            `db:"stage"`
	Decision          sql.NullString `db:"decision"`
	IsRejectionReason bool           `db:"is_rejection_reason"`
	CreatedAt         time.Time      `db:"created_at"`
	EditedBy          sql.NullString `db:"edited_by"`
	EditedAt          sql.NullTime   `db:"edited_at"`
}
