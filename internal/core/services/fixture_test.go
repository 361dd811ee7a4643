package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/water_permits_app/internal/core/ports/services"
	"github.com/SscSPs/water_permits_app/internal/core/services"
	"github.com/SscSPs/water_permits_app/internal/platform/config"
	"github.com/SscSPs/water_permits_app/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	officer     = domain.Actor{UserID: "u-officer", Name: "Officer", Role: domain.RolePermittingOfficer}
	chair       = domain.Actor{UserID: "u-chair", Name: "Chair", Role: domain.RoleChairperson}
	manager     = domain.Actor{UserID: "u-manager", Name: "Manager", Role: domain.RoleCatchmentManager}
	catchChair  = domain.Actor{UserID: "u-cc", Name: "Catchment Chair", Role: domain.RoleCatchmentChairperson}
	ictOperator = domain.Actor{UserID: "u-ict", Name: "ICT", Role: domain.RoleICT}
)

// workflowFixture wires every service over in-memory stores.
type workflowFixture struct {
	apps   *memory.ApplicationStore
	audits *memory.AuditLogStore
	users  *memory.UserStore
	ledger *memory.ReviewLedgerStore
	svc    *portssvc.ServiceContainer
}

func newWorkflowFixture() *workflowFixture {
	f := &workflowFixture{
		apps:   memory.NewApplicationStore(),
		audits: memory.NewAuditLogStore(),
		users:  memory.NewUserStore(),
		ledger: memory.NewReviewLedgerStore(),
	}
	f.svc = f.container(f.ledger)
	return f
}

func (f *workflowFixture) container(ledger *memory.ReviewLedgerStore) *portssvc.ServiceContainer {
	cfg := &config.Config{
		JWTSecret:         "test-secret",
		JWTExpiryDuration: time.Hour,
		JWTIssuer:         "water-permits-test",
	}
	return services.NewServiceContainer(cfg, portsrepo.RepositoryProvider{
		ApplicationRepo: f.apps,
		AuditLogRepo:    f.audits,
		UserRepo:        f.users,
		LedgerStore:     ledger,
	}, nil)
}

// restart simulates a process restart: persisted data survives, ledger state does not.
func (f *workflowFixture) restart() {
	f.ledger = memory.NewReviewLedgerStore()
	f.svc = f.container(f.ledger)
}

var seedEpoch = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// seed stores an application directly at stage. order fixes its position in pending listings.
func (f *workflowFixture) seed(t *testing.T, id string, stage domain.Stage, order int) {
	t.Helper()
	status := domain.StatusUnderReview
	if stage == domain.StageChairperson {
		status = domain.StatusSubmitted
	}
	submitted := seedEpoch.Add(time.Duration(order) * time.Minute)
	require.NoError(t, f.apps.CreateApplication(context.Background(), domain.PermitApplication{
		ID:              id,
		ApplicationID:   "MC2026-" + id,
		ApplicantName:   "Applicant " + id,
		PermitType:      domain.PermitIrrigation,
		WaterSource:     domain.SurfaceWater,
		WaterAllocation: decimal.NewFromInt(int64(10 * (order + 1))),
		LandSize:        decimal.NewFromInt(5),
		Status:          status,
		CurrentStage:    stage,
		SubmittedAt:     &submitted,
		AuditFields:     domain.NewAuditFields(officer.UserID, seedEpoch),
	}))
}

// complete performs the reviewer work an application needs at stages 2 and 3.
func (f *workflowFixture) complete(t *testing.T, actor domain.Actor, stage domain.Stage, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Review.SetReviewed(ctx, actor, stage, id, true)
	require.NoError(t, err)
	_, err = f.svc.Review.SaveComment(ctx, actor, stage, id, "Reviewed and in order")
	require.NoError(t, err)
}

func (f *workflowFixture) app(t *testing.T, id string) *domain.PermitApplication {
	t.Helper()
	app, err := f.apps.FindApplicationByID(context.Background(), id)
	require.NoError(t, err)
	return app
}

func (f *workflowFixture) countAudit(t *testing.T, action domain.AuditAction) int {
	t.Helper()
	logs, err := f.audits.ListLogs(context.Background(), portsrepo.AuditLogFilter{})
	require.NoError(t, err)
	n := 0
	for _, l := range logs {
		if l.Action == action {
			n++
		}
	}
	return n
}
