package workflow

import (
	"strings"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
)

// EvaluateApplication computes the readiness of a single application at stage from its ledger
// entry. A nil entry means the reviewer has done nothing yet.
func EvaluateApplication(stage domain.Stage, applicationID string, entry *domain.ReviewLedgerEntry) domain.Readiness {
	r := domain.Readiness{ApplicationID: applicationID}

	if stage == domain.StageCatchmentChairperson {
		switch {
		case entry == nil || entry.Decision == nil:
			r.Missing = append(r.Missing, domain.RequirementDecision)
		case *entry.Decision == domain.DecisionRejected && !entry.RejectionReasonSaved:
			r.Missing = append(r.Missing, domain.RequirementRejectionReason)
		}
	} else {
		if entry == nil || !entry.Reviewed {
			r.Missing = append(r.Missing, domain.RequirementReviewed)
		}
		if entry == nil || strings.TrimSpace(entry.SavedComment) == "" {
			r.Missing = append(r.Missing, domain.RequirementComment)
		}
	}

	r.Ready = len(r.Missing) == 0
	return r
}

// EvaluateBatch computes readiness for every application in the pending set. The batch is ready
// only when every member is; one incomplete application blocks all of them.
func EvaluateBatch(stage domain.Stage, apps []domain.PermitApplication, entries map[string]domain.ReviewLedgerEntry) domain.BatchReadiness {
	batch := domain.BatchReadiness{
		Stage: stage,
		Total: len(apps),
		Items: make([]domain.Readiness, 0, len(apps)),
	}
	for _, app := range apps {
		var entry *domain.ReviewLedgerEntry
		if e, ok := entries[app.ID]; ok {
			entry = &e
		}
		r := EvaluateApplication(stage, app.ID, entry)
		r.Reference = app.ApplicationID
		if r.Ready {
			batch.Ready++
		}
		batch.Items = append(batch.Items, r)
	}
	return batch
}
