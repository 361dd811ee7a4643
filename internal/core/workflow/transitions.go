// Package workflow contains the pure rules of the permit review pipeline: which role owns which
// stage, which transitions are legal, and when an application or a batch is complete.
// Nothing here performs I/O.
package workflow

import (
	"fmt"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
)

// Operation is an action a role may take on an application at a stage.
type Operation string

const (
	OpSubmit  Operation = "submit"
	OpReview  Operation = "review" // ledger mutations: reviewed flag, comments, decisions
	OpAdvance Operation = "advance"
	OpDecide  Operation = "decide"
)

type stageRule struct {
	role domain.UserRole
	ops  []Operation
	next domain.Stage
}

var transitionTable = map[domain.Stage]stageRule{
	domain.StageDraft:                {role: domain.RolePermittingOfficer, ops: []Operation{OpSubmit}, next: domain.StageChairperson},
	domain.StageChairperson:          {role: domain.RoleChairperson, ops: []Operation{OpReview, OpAdvance}, next: domain.StageCatchmentManager},
	domain.StageCatchmentManager:     {role: domain.RoleCatchmentManager, ops: []Operation{OpReview, OpAdvance}, next: domain.StageCatchmentChairperson},
	domain.StageCatchmentChairperson: {role: domain.RoleCatchmentChairperson, ops: []Operation{OpReview, OpDecide}, next: domain.StageOfficerDesk},
}

// RequiredRole returns the role that owns a stage.
func RequiredRole(stage domain.Stage) (domain.UserRole, bool) {
	rule, ok := transitionTable[stage]
	if !ok {
		return "", false
	}
	return rule.role, true
}

// StageForRole returns the review stage owned by a role.
func StageForRole(role domain.UserRole) (domain.Stage, bool) {
	for stage, rule := range transitionTable {
		if rule.role == role && stage.IsReviewStage() {
			return stage, true
		}
	}
	return 0, false
}

// Allows reports whether role may perform op at stage.
func Allows(stage domain.Stage, role domain.UserRole, op Operation) bool {
	rule, ok := transitionTable[stage]
	if !ok || rule.role != role {
		return false
	}
	for _, allowed := range rule.ops {
		if allowed == op {
			return true
		}
	}
	return false
}

// NextStage returns the stage an application moves to when it leaves stage.
func NextStage(stage domain.Stage) (domain.Stage, error) {
	rule, ok := transitionTable[stage]
	if !ok {
		return 0, fmt.Errorf("stage %d has no outgoing transition", stage)
	}
	return rule.next, nil
}

// position orders stages along the pipeline; the officer desk is last once decided.
func position(stage domain.Stage) int {
	switch stage {
	case domain.StageDraft:
		return 0
	case domain.StageChairperson:
		return 1
	case domain.StageCatchmentManager:
		return 2
	case domain.StageCatchmentChairperson:
		return 3
	case domain.StageOfficerDesk:
		return 4
	}
	return -1
}

// HasPassed reports whether current lies beyond stage in the pipeline.
func HasPassed(current, stage domain.Stage) bool {
	return position(current) > position(stage)
}
