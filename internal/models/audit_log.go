package models

import (
	"database/sql"
	"time"
)

// AuditLog is a row of the audit_logs table.
type AuditLog struct {
	LogID         string         `db:"log_id"`
	UserID        string         `db:"user_id"`
	UserType      string         `db:"user_type"`
	Action        string         `db:"action"`
	Details       string         `db:"details"`
	ApplicationID sql.NullString `db:"application_id"`
	CreatedAt     time.Time      `db:"created_at"`
}
