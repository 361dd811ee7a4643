package domain

import "time"

// AuditFields records who created and last touched an application or user row.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// NewAuditFields stamps a freshly created record.
func NewAuditFields(by string, at time.Time) AuditFields {
	return AuditFields{CreatedAt: at, CreatedBy: by, LastUpdatedAt: at, LastUpdatedBy: by}
}

// Touch records a later modification. A zero at leaves the fields unchanged.
func (a *AuditFields) Touch(by string, at time.Time) {
	if at.IsZero() {
		return
	}
	a.LastUpdatedAt = at
	a.LastUpdatedBy = by
}
