package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/SscSPs/water_permits_app/internal/core/workflow"
	"github.com/SscSPs/water_permits_app/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type WorkflowServiceTestSuite struct {
	suite.Suite
	ctx context.Context
	f   *workflowFixture
}

func (s *WorkflowServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.f = newWorkflowFixture()
}

func TestWorkflowServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowServiceTestSuite))
}

func (s *WorkflowServiceTestSuite) TestSubmitBatch_IncompleteSetMovesNothing() {
	t := s.T()
	for i, id := range []string{"a1", "a2", "a3"} {
		s.f.seed(t, id, domain.StageChairperson, i)
	}
	s.f.complete(t, chair, domain.StageChairperson, "a1")
	s.f.complete(t, chair, domain.StageChairperson, "a2")
	_, err := s.f.svc.Review.SetReviewed(s.ctx, chair, domain.StageChairperson, "a3", true)
	s.Require().NoError(err)

	result, err := s.f.svc.Workflow.SubmitBatch(s.ctx, chair, domain.StageChairperson)

	var blocked *workflow.BatchBlockedError
	s.Require().True(errors.As(err, &blocked))
	s.ErrorIs(err, apperrors.ErrBatchBlocked)
	s.Equal([]string{"a3"}, blocked.BlockedIDs())
	s.Equal(2, blocked.Ready)
	s.Equal(3, blocked.Total)
	s.Require().Len(blocked.Blocked, 1)
	s.Equal([]domain.Requirement{domain.RequirementComment}, blocked.Blocked[0].Missing)

	s.Require().NotNil(result)
	s.Equal([]string{"a3"}, result.BlockedIDs)
	s.Empty(result.SucceededIDs)
	for _, id := range []string{"a1", "a2", "a3"} {
		s.Equal(domain.StageChairperson, s.f.app(t, id).CurrentStage, id)
	}
	s.Zero(s.f.countAudit(t, domain.ActionAdvancedApplication))
	s.Zero(s.f.countAudit(t, domain.ActionBatchSubmitted))

	// finishing the last application unblocks the whole set
	_, err = s.f.svc.Review.SaveComment(s.ctx, chair, domain.StageChairperson, "a3", "Fine")
	s.Require().NoError(err)
	result, err = s.f.svc.Workflow.SubmitBatch(s.ctx, chair, domain.StageChairperson)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"a1", "a2", "a3"}, result.SucceededIDs)
	for _, id := range []string{"a1", "a2", "a3"} {
		app := s.f.app(t, id)
		s.Equal(domain.StageCatchmentManager, app.CurrentStage)
		s.Equal(domain.StatusUnderReview, app.Status)
	}
	s.Equal(3, s.f.countAudit(t, domain.ActionAdvancedApplication))
	s.Equal(1, s.f.countAudit(t, domain.ActionBatchSubmitted))
	s.Zero(s.f.ledger.Len())
}

func (s *WorkflowServiceTestSuite) TestSubmitBatch_EmptyStageIsBlocked() {
	_, err := s.f.svc.Workflow.SubmitBatch(s.ctx, manager, domain.StageCatchmentManager)

	var blocked *workflow.BatchBlockedError
	s.Require().True(errors.As(err, &blocked))
	s.Zero(blocked.Total)
}

func (s *WorkflowServiceTestSuite) TestSubmitBatch_WrongRole() {
	s.f.seed(s.T(), "a1", domain.StageChairperson, 0)

	_, err := s.f.svc.Workflow.SubmitBatch(s.ctx, manager, domain.StageChairperson)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.f.svc.Workflow.SubmitBatch(s.ctx, officer, domain.StageDraft)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *WorkflowServiceTestSuite) TestSubmitBatch_FailedCommitIsUndone() {
	t := s.T()
	s.f.seed(t, "a1", domain.StageChairperson, 0)
	s.f.seed(t, "a2", domain.StageChairperson, 1)
	s.f.complete(t, chair, domain.StageChairperson, "a1")
	s.f.complete(t, chair, domain.StageChairperson, "a2")
	s.f.apps.FailUpdateOn("a2", errors.New("connection reset"))

	result, err := s.f.svc.Workflow.SubmitBatch(s.ctx, chair, domain.StageChairperson)

	var partial *workflow.PartialCommitError
	s.Require().True(errors.As(err, &partial))
	s.ErrorIs(err, apperrors.ErrPartialCommit)
	s.Empty(partial.Succeeded)
	s.ElementsMatch([]string{"a1", "a2"}, partial.Failed)
	s.Require().NotNil(result)
	s.Contains(result.Errors, "a2")
	for _, id := range []string{"a1", "a2"} {
		app := s.f.app(t, id)
		s.Equal(domain.StageChairperson, app.CurrentStage, id)
		s.Equal(domain.StatusSubmitted, app.Status, id)
	}
	s.Zero(s.f.countAudit(t, domain.ActionAdvancedApplication))

	// review work is kept, so a retry succeeds once the store recovers
	pending, err := s.f.svc.Review.ListPending(s.ctx, chair, domain.StageChairperson)
	s.Require().NoError(err)
	s.True(pending.CanSubmit)

	s.f.apps.FailUpdateOn("a2", nil)
	result, err = s.f.svc.Workflow.SubmitBatch(s.ctx, chair, domain.StageChairperson)
	s.Require().NoError(err)
	s.Len(result.SucceededIDs, 2)
}

func (s *WorkflowServiceTestSuite) TestSubmitBatch_ReportsApplicationsThatCouldNotBeUndone() {
	t := s.T()
	s.f.seed(t, "d1", domain.StageCatchmentChairperson, 0)
	s.f.seed(t, "d2", domain.StageCatchmentChairperson, 1)
	for _, id := range []string{"d1", "d2"} {
		_, err := s.f.svc.Review.SaveDecision(s.ctx, catchChair, id, domain.DecisionApproved, "")
		s.Require().NoError(err)
	}
	s.f.apps.FailAppendOn("d2", errors.New("disk full"))
	s.f.apps.FailRetractOn("d1", errors.New("disk full"))

	result, err := s.f.svc.Workflow.SubmitBatch(s.ctx, catchChair, domain.StageCatchmentChairperson)

	var partial *workflow.PartialCommitError
	s.Require().True(errors.As(err, &partial))
	s.Equal([]string{"d1"}, partial.Succeeded)
	s.Equal([]string{"d2"}, partial.Failed)
	s.Equal([]string{"d1"}, result.SucceededIDs)
	s.Contains(result.Errors, "d2")

	d1 := s.f.app(t, "d1")
	s.Equal(domain.StageOfficerDesk, d1.CurrentStage)
	s.Equal(domain.StatusApproved, d1.Status)

	d2 := s.f.app(t, "d2")
	s.Equal(domain.StageCatchmentChairperson, d2.CurrentStage)
	s.Equal(domain.StatusUnderReview, d2.Status)
	s.Nil(d2.ApprovedAt)
	s.Require().Len(d2.WorkflowComments, 1)
	s.Equal(domain.DecisionPrefix+"APPROVED", d2.WorkflowComments[0].Comment)
}

func (s *WorkflowServiceTestSuite) TestSubmitBatch_DecisionsReturnToOfficer() {
	t := s.T()
	s.f.seed(t, "d1", domain.StageCatchmentChairperson, 0)
	s.f.seed(t, "d2", domain.StageCatchmentChairperson, 1)
	_, err := s.f.svc.Review.SaveDecision(s.ctx, catchChair, "d1", domain.DecisionApproved, "")
	s.Require().NoError(err)
	_, err = s.f.svc.Review.SaveDecision(s.ctx, catchChair, "d2", domain.DecisionRejected, "Catchment over-allocated")
	s.Require().NoError(err)

	_, err = s.f.svc.Workflow.SubmitBatch(s.ctx, catchChair, domain.StageCatchmentChairperson)
	s.Require().NoError(err)

	d1 := s.f.app(t, "d1")
	s.Equal(domain.StageOfficerDesk, d1.CurrentStage)
	s.Equal(domain.StatusApproved, d1.Status)
	s.NotNil(d1.ApprovedAt)
	s.Require().Len(d1.WorkflowComments, 2)
	s.Equal(domain.DecisionPrefix+"APPROVED", d1.WorkflowComments[0].Comment)
	s.Equal(domain.FinalDecisionPrefix+"APPROVED", d1.WorkflowComments[1].Comment)

	d2 := s.f.app(t, "d2")
	s.Equal(domain.StatusRejected, d2.Status)
	s.NotNil(d2.RejectedAt)
	s.Require().Len(d2.WorkflowComments, 2)
	s.True(d2.WorkflowComments[0].IsRejectionReason)
	s.Equal(domain.RejectionReasonPrefix+"Catchment over-allocated", d2.WorkflowComments[0].Comment)
	s.Equal(domain.FinalDecisionPrefix+"REJECTED", d2.WorkflowComments[1].Comment)

	s.Equal(1, s.f.countAudit(t, domain.ActionApprovedApplication))
	s.Equal(1, s.f.countAudit(t, domain.ActionRejectedApplication))
}

func (s *WorkflowServiceTestSuite) TestSubmitBatch_BlankRejectionBlocksOnReason() {
	t := s.T()
	s.f.seed(t, "a4", domain.StageCatchmentChairperson, 0)
	s.f.seed(t, "a5", domain.StageCatchmentChairperson, 1)
	_, err := s.f.svc.Review.SaveDecision(s.ctx, catchChair, "a4", domain.DecisionApproved, "")
	s.Require().NoError(err)
	_, err = s.f.svc.Review.SaveDecision(s.ctx, catchChair, "a5", domain.DecisionRejected, "")
	s.ErrorIs(err, apperrors.ErrMissingRejectionReason)

	result, err := s.f.svc.Workflow.SubmitBatch(s.ctx, catchChair, domain.StageCatchmentChairperson)

	var blocked *workflow.BatchBlockedError
	s.Require().True(errors.As(err, &blocked))
	s.Equal([]string{"a5"}, blocked.BlockedIDs())
	s.Equal([]string{"MC2026-a5"}, blocked.BlockedReferences())
	s.Require().Len(blocked.Blocked, 1)
	s.Equal([]domain.Requirement{domain.RequirementRejectionReason}, blocked.Blocked[0].Missing)
	s.Equal([]string{"a5"}, result.BlockedIDs)

	for _, id := range []string{"a4", "a5"} {
		s.Equal(domain.StageCatchmentChairperson, s.f.app(t, id).CurrentStage, id)
	}
	s.Zero(s.f.countAudit(t, domain.ActionApprovedApplication))
}

func (s *WorkflowServiceTestSuite) TestSubmitBatch_RejectionSwitchedToApproval() {
	t := s.T()
	s.f.seed(t, "d1", domain.StageCatchmentChairperson, 0)
	_, err := s.f.svc.Review.SaveDecision(s.ctx, catchChair, "d1", domain.DecisionRejected, "Bad site")
	s.Require().NoError(err)
	_, err = s.f.svc.Review.SaveDecision(s.ctx, catchChair, "d1", domain.DecisionApproved, "")
	s.Require().NoError(err)

	_, err = s.f.svc.Workflow.SubmitBatch(s.ctx, catchChair, domain.StageCatchmentChairperson)
	s.Require().NoError(err)

	d1 := s.f.app(t, "d1")
	s.Equal(domain.StatusApproved, d1.Status)
	s.NotNil(d1.ApprovedAt)
	s.Nil(d1.RejectedAt)
	s.Equal(1, s.f.countAudit(t, domain.ActionApprovedApplication))
	s.Zero(s.f.countAudit(t, domain.ActionRejectedApplication))
}

func (s *WorkflowServiceTestSuite) TestSubmitBatch_ApprovalSwitchedToRejection() {
	t := s.T()
	s.f.seed(t, "d1", domain.StageCatchmentChairperson, 0)
	_, err := s.f.svc.Review.SaveDecision(s.ctx, catchChair, "d1", domain.DecisionApproved, "")
	s.Require().NoError(err)
	_, err = s.f.svc.Review.SaveDecision(s.ctx, catchChair, "d1", domain.DecisionRejected, "Over-abstraction")
	s.Require().NoError(err)

	_, err = s.f.svc.Workflow.SubmitBatch(s.ctx, catchChair, domain.StageCatchmentChairperson)
	s.Require().NoError(err)

	d1 := s.f.app(t, "d1")
	s.Equal(domain.StatusRejected, d1.Status)
	s.NotNil(d1.RejectedAt)
	s.Nil(d1.ApprovedAt)
	n := len(d1.WorkflowComments)
	s.Require().Equal(3, n)
	s.Equal(domain.DecisionPrefix+"APPROVED", d1.WorkflowComments[0].Comment)
	s.Equal(domain.RejectionReasonPrefix+"Over-abstraction", d1.WorkflowComments[1].Comment)
	s.Equal(domain.FinalDecisionPrefix+"REJECTED", d1.WorkflowComments[2].Comment)
	s.Equal(1, s.f.countAudit(t, domain.ActionRejectedApplication))
}

func (s *WorkflowServiceTestSuite) TestAdvance_RepeatIsNoOp() {
	t := s.T()
	s.f.seed(t, "a1", domain.StageChairperson, 0)
	s.f.complete(t, chair, domain.StageChairperson, "a1")

	app, err := s.f.svc.Workflow.Advance(s.ctx, chair, "a1", domain.StageChairperson)
	s.Require().NoError(err)
	s.Equal(domain.StageCatchmentManager, app.CurrentStage)
	s.Equal(domain.StatusUnderReview, app.Status)

	again, err := s.f.svc.Workflow.Advance(s.ctx, chair, "a1", domain.StageChairperson)
	s.Require().NoError(err)
	s.Equal(domain.StageCatchmentManager, again.CurrentStage)
	s.Equal(1, s.f.countAudit(t, domain.ActionAdvancedApplication))
}

func (s *WorkflowServiceTestSuite) TestAdvance_Refusals() {
	t := s.T()
	s.f.seed(t, "a1", domain.StageChairperson, 0)
	s.f.seed(t, "far", domain.StageCatchmentChairperson, 1)

	_, err := s.f.svc.Workflow.Advance(s.ctx, chair, "a1", domain.StageChairperson)
	s.ErrorIs(err, apperrors.ErrNotReady)

	_, err = s.f.svc.Workflow.Advance(s.ctx, manager, "a1", domain.StageChairperson)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.f.svc.Workflow.Advance(s.ctx, chair, "far", domain.StageChairperson)
	s.ErrorIs(err, apperrors.ErrAlreadyAdvanced)

	_, err = s.f.svc.Workflow.Advance(s.ctx, chair, "missing", domain.StageChairperson)
	s.ErrorIs(err, apperrors.ErrNotFound)

	s.Equal(domain.StageChairperson, s.f.app(t, "a1").CurrentStage)
}

func (s *WorkflowServiceTestSuite) TestDecide_UsesSavedRejectionReason() {
	t := s.T()
	s.f.seed(t, "d1", domain.StageCatchmentChairperson, 0)
	_, err := s.f.svc.Review.SaveDecision(s.ctx, catchChair, "d1", domain.DecisionRejected, "Borehole too close to river")
	s.Require().NoError(err)

	app, err := s.f.svc.Workflow.Decide(s.ctx, catchChair, "d1", domain.DecisionRejected, "")
	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, app.Status)
	s.Equal(domain.StageOfficerDesk, app.CurrentStage)

	reasons := 0
	for _, c := range app.WorkflowComments {
		if c.IsRejectionReason {
			reasons++
		}
	}
	s.Equal(1, reasons)
}

func (s *WorkflowServiceTestSuite) TestDecide_RejectionWithoutReason() {
	t := s.T()
	s.f.seed(t, "d1", domain.StageCatchmentChairperson, 0)

	_, err := s.f.svc.Workflow.Decide(s.ctx, catchChair, "d1", domain.DecisionRejected, "  ")
	s.ErrorIs(err, apperrors.ErrMissingRejectionReason)
	s.ErrorIs(err, apperrors.ErrValidation)

	app := s.f.app(t, "d1")
	s.Equal(domain.StageCatchmentChairperson, app.CurrentStage)
	s.Empty(app.WorkflowComments)

	// an unsaved reason passed directly is persisted with the decision
	app, err = s.f.svc.Workflow.Decide(s.ctx, catchChair, "d1", domain.DecisionRejected, "Incomplete survey")
	s.Require().NoError(err)
	s.Require().Len(app.WorkflowComments, 2)
	s.Equal(domain.RejectionReasonPrefix+"Incomplete survey", app.WorkflowComments[0].Comment)
}

func (s *WorkflowServiceTestSuite) TestDecide_TerminalApplicationsStayDecided() {
	t := s.T()
	s.f.seed(t, "d1", domain.StageCatchmentChairperson, 0)

	_, err := s.f.svc.Workflow.Decide(s.ctx, catchChair, "d1", domain.DecisionApproved, "")
	s.Require().NoError(err)

	again, err := s.f.svc.Workflow.Decide(s.ctx, catchChair, "d1", domain.DecisionApproved, "")
	s.Require().NoError(err)
	s.Equal(domain.StatusApproved, again.Status)
	s.Len(again.WorkflowComments, 1)

	_, err = s.f.svc.Workflow.Decide(s.ctx, catchChair, "d1", domain.DecisionRejected, "changed my mind")
	s.ErrorIs(err, apperrors.ErrAlreadyAdvanced)

	_, err = s.f.svc.Review.SaveComment(s.ctx, catchChair, domain.StageCatchmentChairperson, "d1", "late remark")
	s.ErrorIs(err, apperrors.ErrStageLocked)

	pending, err := s.f.apps.GetApplicationsByStage(s.ctx, domain.StageCatchmentChairperson)
	s.Require().NoError(err)
	s.Empty(pending)

	decided, err := s.f.svc.Application.ListDecided(s.ctx, officer, dto.ListApplicationsParams{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(decided, 1)
	s.Equal("d1", decided[0].ID)
}

func (s *WorkflowServiceTestSuite) TestDecide_WrongStageOrRole() {
	t := s.T()
	s.f.seed(t, "a1", domain.StageChairperson, 0)
	s.f.seed(t, "d1", domain.StageCatchmentChairperson, 1)

	_, err := s.f.svc.Workflow.Decide(s.ctx, catchChair, "a1", domain.DecisionApproved, "")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.f.svc.Workflow.Decide(s.ctx, ictOperator, "d1", domain.DecisionApproved, "")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.f.svc.Workflow.Decide(s.ctx, catchChair, "d1", domain.Decision("deferred"), "")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func TestWorkflow_FullPipeline(t *testing.T) {
	ctx := context.Background()
	f := newWorkflowFixture()

	app, err := f.svc.Application.CreateApplication(ctx, officer, newApplicationRequest())
	require.NoError(t, err)
	_, err = f.svc.Application.SubmitApplication(ctx, officer, app.ID)
	require.NoError(t, err)

	f.complete(t, chair, domain.StageChairperson, app.ID)
	_, err = f.svc.Workflow.SubmitBatch(ctx, chair, domain.StageChairperson)
	require.NoError(t, err)

	f.complete(t, manager, domain.StageCatchmentManager, app.ID)
	_, err = f.svc.Workflow.SubmitBatch(ctx, manager, domain.StageCatchmentManager)
	require.NoError(t, err)

	_, err = f.svc.Review.SaveDecision(ctx, catchChair, app.ID, domain.DecisionApproved, "")
	require.NoError(t, err)
	_, err = f.svc.Workflow.SubmitBatch(ctx, catchChair, domain.StageCatchmentChairperson)
	require.NoError(t, err)

	final := f.app(t, app.ID)
	assert.Equal(t, domain.StageOfficerDesk, final.CurrentStage)
	assert.Equal(t, domain.StatusApproved, final.Status)

	stages := make([]domain.Stage, len(final.WorkflowComments))
	for i, c := range final.WorkflowComments {
		stages[i] = c.Stage
	}
	assert.Equal(t, []domain.Stage{
		domain.StageChairperson,
		domain.StageCatchmentManager,
		domain.StageCatchmentChairperson,
		domain.StageCatchmentChairperson,
	}, stages)
	assert.Equal(t, domain.RoleCatchmentManager, final.WorkflowComments[1].UserType)
}
