package workflow

import (
	"testing"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func decisionPtr(d domain.Decision) *domain.Decision { return &d }

func TestEvaluateApplication_ReviewStages(t *testing.T) {
	tests := []struct {
		name        string
		entry       *domain.ReviewLedgerEntry
		wantReady   bool
		wantMissing []domain.Requirement
	}{
		{
			name:        "no entry",
			entry:       nil,
			wantMissing: []domain.Requirement{domain.RequirementReviewed, domain.RequirementComment},
		},
		{
			name:        "reviewed only",
			entry:       &domain.ReviewLedgerEntry{Reviewed: true},
			wantMissing: []domain.Requirement{domain.RequirementComment},
		},
		{
			name:        "draft comment does not count",
			entry:       &domain.ReviewLedgerEntry{Reviewed: true, DraftComment: "looks fine"},
			wantMissing: []domain.Requirement{domain.RequirementComment},
		},
		{
			name:        "whitespace saved comment does not count",
			entry:       &domain.ReviewLedgerEntry{Reviewed: true, SavedComment: "  \t"},
			wantMissing: []domain.Requirement{domain.RequirementComment},
		},
		{
			name:        "commented but not reviewed",
			entry:       &domain.ReviewLedgerEntry{SavedComment: "ok"},
			wantMissing: []domain.Requirement{domain.RequirementReviewed},
		},
		{
			name:      "reviewed and commented",
			entry:     &domain.ReviewLedgerEntry{Reviewed: true, SavedComment: "ok"},
			wantReady: true,
		},
	}

	for _, stage := range []domain.Stage{domain.StageChairperson, domain.StageCatchmentManager} {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := EvaluateApplication(stage, "A1", tt.entry)
				assert.Equal(t, tt.wantReady, r.Ready)
				assert.Equal(t, tt.wantMissing, r.Missing)
			})
		}
	}
}

func TestEvaluateApplication_DecisionStage(t *testing.T) {
	tests := []struct {
		name        string
		entry       *domain.ReviewLedgerEntry
		wantMissing []domain.Requirement
	}{
		{name: "no decision", entry: &domain.ReviewLedgerEntry{Reviewed: true, SavedComment: "x"}, wantMissing: []domain.Requirement{domain.RequirementDecision}},
		{name: "approved", entry: &domain.ReviewLedgerEntry{Decision: decisionPtr(domain.DecisionApproved)}},
		{name: "rejected without saved reason", entry: &domain.ReviewLedgerEntry{Decision: decisionPtr(domain.DecisionRejected), RejectionReason: "typed but unsaved"}, wantMissing: []domain.Requirement{domain.RequirementRejectionReason}},
		{name: "rejected with saved reason", entry: &domain.ReviewLedgerEntry{Decision: decisionPtr(domain.DecisionRejected), RejectionReason: "wetland", RejectionReasonSaved: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := EvaluateApplication(domain.StageCatchmentChairperson, "A5", tt.entry)
			assert.Equal(t, len(tt.wantMissing) == 0, r.Ready)
			assert.Equal(t, tt.wantMissing, r.Missing)
		})
	}
}

func TestEvaluateBatch_OneIncompleteBlocksAll(t *testing.T) {
	apps := []domain.PermitApplication{{ID: "A1"}, {ID: "A2"}, {ID: "A3"}}
	entries := map[string]domain.ReviewLedgerEntry{
		"A1": {ApplicationID: "A1", Reviewed: true, SavedComment: "ok"},
		"A2": {ApplicationID: "A2", Reviewed: true, SavedComment: "ok"},
		"A3": {ApplicationID: "A3", Reviewed: true},
	}

	batch := EvaluateBatch(domain.StageCatchmentManager, apps, entries)

	assert.False(t, batch.AllReady())
	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 2, batch.Ready)
	blocked := batch.Blocked()
	if assert.Len(t, blocked, 1) {
		assert.Equal(t, "A3", blocked[0].ApplicationID)
		assert.Equal(t, []domain.Requirement{domain.RequirementComment}, blocked[0].Missing)
	}

	entries["A3"] = domain.ReviewLedgerEntry{ApplicationID: "A3", Reviewed: true, SavedComment: "ok"}
	assert.True(t, EvaluateBatch(domain.StageCatchmentManager, apps, entries).AllReady())
}

func TestEvaluateBatch_EmptySetIsNotReady(t *testing.T) {
	batch := EvaluateBatch(domain.StageChairperson, nil, nil)
	assert.False(t, batch.AllReady())
	assert.Empty(t, batch.Blocked())
}

func TestBatchBlockedError(t *testing.T) {
	apps := []domain.PermitApplication{{ID: "A4", ApplicationID: "MC2026-0004"}, {ID: "A5", ApplicationID: "MC2026-0005"}}
	entries := map[string]domain.ReviewLedgerEntry{
		"A4": {Decision: decisionPtr(domain.DecisionApproved)},
		"A5": {Decision: decisionPtr(domain.DecisionRejected)},
	}
	err := NewBatchBlockedError(EvaluateBatch(domain.StageCatchmentChairperson, apps, entries))

	assert.Equal(t, []string{"A5"}, err.BlockedIDs())
	assert.Equal(t, []domain.Requirement{domain.RequirementRejectionReason}, err.Blocked[0].Missing)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Equal(t, []string{"MC2026-0005"}, err.BlockedReferences())
	assert.Equal(t, "MC2026-0005", err.Blocked[0].Reference)
	assert.Contains(t, err.Error(), "incomplete: MC2026-0005")
}

func TestBatchBlockedError_ReferenceFallsBackToID(t *testing.T) {
	err := &BatchBlockedError{Stage: domain.StageChairperson, Total: 1, Blocked: []domain.Readiness{{ApplicationID: "A9"}}}
	assert.Equal(t, []string{"A9"}, err.BlockedReferences())
}
