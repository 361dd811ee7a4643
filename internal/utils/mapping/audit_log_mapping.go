package mapping

import (
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/SscSPs/water_permits_app/internal/models"
)

// ToModelAuditLog converts a domain AuditLogEntry to a model AuditLog
func ToModelAuditLog(d domain.AuditLogEntry) models.AuditLog {
	return models.AuditLog{
		LogID:         d.LogID,
		UserID:        d.UserID,
		UserType:      string(d.UserType),
		Action:        string(d.Action),
		Details:       d.Details,
		ApplicationID: toNullString(d.ApplicationID),
		CreatedAt:     d.Timestamp,
	}
}

// ToDomainAuditLog converts a model AuditLog to a domain AuditLogEntry
func ToDomainAuditLog(m models.AuditLog) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		LogID:         m.LogID,
		UserID:        m.UserID,
		UserType:      domain.UserRole(m.UserType),
		Action:        domain.AuditAction(m.Action),
		Details:       m.Details,
		ApplicationID: fromNullString(m.ApplicationID),
		Timestamp:     m.CreatedAt,
	}
}
