package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// PermitApplication is a row of the permit_applications table.
type PermitApplication struct {
	ID              string          `db:"id"`
	ApplicationID   string          `db:"application_id"`
	ApplicantName   string          `db:"applicant_name"`
	PhysicalAddress string          `db:"physical_address"`
	PermitType      string          `db:"permit_type"`
	WaterSource     string          `db:"water_source"`
	WaterAllocation decimal.Decimal `db:"water_allocation"`
	LandSize        decimal.Decimal `db:"land_size"`
	IntendedUse     string          `db:"intended_use"`
	Status          string          `db:"status"`
	CurrentStage    int             `db:"current_stage"`
	SubmittedAt     sql.NullTime    `db:"submitted_at"`
	ApprovedAt      sql.NullTime    `db:"approved_at"`
	RejectedAt      sql.NullTime    `db:"rejected_at"`
	AuditFields
}
