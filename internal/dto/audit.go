package dto

import (
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
)

// ListAuditLogsParams defines query parameters for listing audit logs.
type ListAuditLogsParams struct {
	ApplicationID string `form:"applicationId" binding:"omitempty,uuid"`
	Limit         int    `form:"limit,default=100" binding:"min=1,max=1000"`
	NextToken     string `form:"nextToken" binding:"max=512"`
}

// AuditLogResponse defines the data returned for an audit log entry.
type AuditLogResponse struct {
	LogID         string             `json:"logID"`
	UserID        string             `json:"userId"`
	UserType      domain.UserRole    `json:"userType"`
	Action        domain.AuditAction `json:"action"`
	Details       string             `json:"details"`
	ApplicationID *string            `json:"applicationId,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
}

// ListAuditLogsResponse wraps one page of audit entries.
type ListAuditLogsResponse struct {
	Logs      []AuditLogResponse `json:"logs"`
	NextToken string             `json:"nextToken,omitempty"`
}

// ToListAuditLogsResponse converts audit entries to ListAuditLogsResponse DTO.
func ToListAuditLogsResponse(entries []domain.AuditLogEntry, nextToken string) ListAuditLogsResponse {
	logs := make([]AuditLogResponse, len(entries))
	for i, e := range entries {
		logs[i] = AuditLogResponse{
			LogID:         e.LogID,
			UserID:        e.UserID,
			UserType:      e.UserType,
			Action:        e.Action,
			Details:       e.Details,
			ApplicationID: e.ApplicationID,
			Timestamp:     e.Timestamp,
		}
	}
	return ListAuditLogsResponse{Logs: logs, NextToken: nextToken}
}
