package workflow

import (
	"testing"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanSubmit(t *testing.T) {
	tests := []struct {
		name        string
		ctx         SubmitContext
		wantAllowed bool
		wantNoOp    bool
		wantErr     error
	}{
		{
			name:        "officer submits draft",
			ctx:         SubmitContext{ApplicationID: "A1", Role: domain.RolePermittingOfficer, CurrentStage: domain.StageDraft, Status: domain.StatusUnsubmitted},
			wantAllowed: true,
		},
		{
			name:        "resubmitting a submitted application is a no-op",
			ctx:         SubmitContext{ApplicationID: "A1", Role: domain.RolePermittingOfficer, CurrentStage: domain.StageChairperson, Status: domain.StatusSubmitted},
			wantAllowed: true,
			wantNoOp:    true,
		},
		{
			name:    "chairperson cannot submit",
			ctx:     SubmitContext{ApplicationID: "A1", Role: domain.RoleChairperson, CurrentStage: domain.StageDraft, Status: domain.StatusUnsubmitted},
			wantErr: apperrors.ErrInvalidTransition,
		},
		{
			name:    "decided application cannot be submitted",
			ctx:     SubmitContext{ApplicationID: "A1", Role: domain.RolePermittingOfficer, CurrentStage: domain.StageOfficerDesk, Status: domain.StatusApproved},
			wantErr: apperrors.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanSubmit(tt.ctx)
			assert.Equal(t, tt.wantAllowed, result.Allowed)
			assert.Equal(t, tt.wantNoOp, result.NoOp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, result.Error(), tt.wantErr)
			} else {
				assert.NoError(t, result.Error())
			}
		})
	}
}

func TestCanAdvance(t *testing.T) {
	ready := domain.Readiness{ApplicationID: "A1", Ready: true}
	notReady := domain.Readiness{ApplicationID: "A1", Missing: []domain.Requirement{domain.RequirementComment}}

	tests := []struct {
		name        string
		ctx         AdvanceContext
		wantAllowed bool
		wantNoOp    bool
		wantErr     error
	}{
		{
			name:        "chairperson advances ready application",
			ctx:         AdvanceContext{ApplicationID: "A1", Role: domain.RoleChairperson, ExpectedStage: 2, CurrentStage: 2, Status: domain.StatusSubmitted, Readiness: ready},
			wantAllowed: true,
		},
		{
			name:        "manager advances ready application",
			ctx:         AdvanceContext{ApplicationID: "A1", Role: domain.RoleCatchmentManager, ExpectedStage: 3, CurrentStage: 3, Status: domain.StatusUnderReview, Readiness: ready},
			wantAllowed: true,
		},
		{
			name:        "already at target stage is a no-op",
			ctx:         AdvanceContext{ApplicationID: "A1", Role: domain.RoleCatchmentManager, ExpectedStage: 3, CurrentStage: 4, Status: domain.StatusUnderReview},
			wantAllowed: true,
			wantNoOp:    true,
		},
		{
			name:    "stale expected stage fails",
			ctx:     AdvanceContext{ApplicationID: "A1", Role: domain.RoleChairperson, ExpectedStage: 2, CurrentStage: 4, Status: domain.StatusUnderReview, Readiness: ready},
			wantErr: apperrors.ErrAlreadyAdvanced,
		},
		{
			name:    "wrong role for stage",
			ctx:     AdvanceContext{ApplicationID: "A1", Role: domain.RoleCatchmentManager, ExpectedStage: 2, CurrentStage: 2, Status: domain.StatusSubmitted, Readiness: ready},
			wantErr: apperrors.ErrInvalidTransition,
		},
		{
			name:    "decision stage cannot be advanced",
			ctx:     AdvanceContext{ApplicationID: "A1", Role: domain.RoleCatchmentChairperson, ExpectedStage: 4, CurrentStage: 4, Status: domain.StatusUnderReview, Readiness: ready},
			wantErr: apperrors.ErrInvalidTransition,
		},
		{
			name:    "not ready",
			ctx:     AdvanceContext{ApplicationID: "A1", Role: domain.RoleChairperson, ExpectedStage: 2, CurrentStage: 2, Status: domain.StatusSubmitted, Readiness: notReady},
			wantErr: apperrors.ErrNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanAdvance(tt.ctx)
			assert.Equal(t, tt.wantNoOp, result.NoOp)
			if tt.wantErr != nil {
				assert.False(t, result.Allowed)
				assert.ErrorIs(t, result.Error(), tt.wantErr)
				return
			}
			assert.Equal(t, tt.wantAllowed, result.Allowed)
		})
	}
}

func TestCanDecide(t *testing.T) {
	tests := []struct {
		name     string
		ctx      DecideContext
		wantNoOp bool
		wantErr  error
	}{
		{
			name: "approve at stage 4",
			ctx:  DecideContext{ApplicationID: "A5", Role: domain.RoleCatchmentChairperson, CurrentStage: 4, Status: domain.StatusUnderReview, Decision: domain.DecisionApproved},
		},
		{
			name: "reject with reason",
			ctx:  DecideContext{ApplicationID: "A5", Role: domain.RoleCatchmentChairperson, CurrentStage: 4, Status: domain.StatusUnderReview, Decision: domain.DecisionRejected, Reason: "wetland buffer"},
		},
		{
			name:    "reject without reason",
			ctx:     DecideContext{ApplicationID: "A5", Role: domain.RoleCatchmentChairperson, CurrentStage: 4, Status: domain.StatusUnderReview, Decision: domain.DecisionRejected, Reason: "   "},
			wantErr: apperrors.ErrMissingRejectionReason,
		},
		{
			name:    "manager cannot decide",
			ctx:     DecideContext{ApplicationID: "A5", Role: domain.RoleCatchmentManager, CurrentStage: 4, Status: domain.StatusUnderReview, Decision: domain.DecisionApproved},
			wantErr: apperrors.ErrInvalidTransition,
		},
		{
			name:    "decision before stage 4",
			ctx:     DecideContext{ApplicationID: "A5", Role: domain.RoleCatchmentChairperson, CurrentStage: 3, Status: domain.StatusUnderReview, Decision: domain.DecisionApproved},
			wantErr: apperrors.ErrInvalidTransition,
		},
		{
			name:     "same decision already applied is a no-op",
			ctx:      DecideContext{ApplicationID: "A5", Role: domain.RoleCatchmentChairperson, CurrentStage: 1, Status: domain.StatusApproved, Decision: domain.DecisionApproved},
			wantNoOp: true,
		},
		{
			name:    "different decision already applied",
			ctx:     DecideContext{ApplicationID: "A5", Role: domain.RoleCatchmentChairperson, CurrentStage: 1, Status: domain.StatusApproved, Decision: domain.DecisionRejected, Reason: "late"},
			wantErr: apperrors.ErrAlreadyAdvanced,
		},
		{
			name:    "unknown decision",
			ctx:     DecideContext{ApplicationID: "A5", Role: domain.RoleCatchmentChairperson, CurrentStage: 4, Status: domain.StatusUnderReview, Decision: "maybe"},
			wantErr: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanDecide(tt.ctx)
			assert.Equal(t, tt.wantNoOp, result.NoOp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, result.Error(), tt.wantErr)
			} else {
				assert.True(t, result.Allowed)
			}
		})
	}
}

func TestCanMutateLedger(t *testing.T) {
	tests := []struct {
		name    string
		ctx     LedgerContext
		wantErr error
	}{
		{
			name: "manager reviews at stage 3",
			ctx:  LedgerContext{ApplicationID: "A1", Role: domain.RoleCatchmentManager, ReviewerStage: 3, CurrentStage: 3},
		},
		{
			name:    "stage locked after advancing",
			ctx:     LedgerContext{ApplicationID: "A1", Role: domain.RoleCatchmentManager, ReviewerStage: 3, CurrentStage: 4},
			wantErr: apperrors.ErrStageLocked,
		},
		{
			name:    "stage locked after final decision",
			ctx:     LedgerContext{ApplicationID: "A1", Role: domain.RoleCatchmentChairperson, ReviewerStage: 4, CurrentStage: 1},
			wantErr: apperrors.ErrStageLocked,
		},
		{
			name:    "not yet at stage",
			ctx:     LedgerContext{ApplicationID: "A1", Role: domain.RoleCatchmentManager, ReviewerStage: 3, CurrentStage: 2},
			wantErr: apperrors.ErrInvalidTransition,
		},
		{
			name:    "other role is unauthorized",
			ctx:     LedgerContext{ApplicationID: "A1", Role: domain.RoleChairperson, ReviewerStage: 3, CurrentStage: 3},
			wantErr: apperrors.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMutateLedger(tt.ctx).Error()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStageForRole(t *testing.T) {
	stage, ok := StageForRole(domain.RoleCatchmentManager)
	assert.True(t, ok)
	assert.Equal(t, domain.StageCatchmentManager, stage)

	_, ok = StageForRole(domain.RolePermittingOfficer)
	assert.False(t, ok, "officer owns no review stage")

	_, ok = StageForRole(domain.RoleICT)
	assert.False(t, ok)
}
