package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	"github.com/SscSPs/water_permits_app/internal/core/services"
	"github.com/SscSPs/water_permits_app/internal/dto"
	"github.com/SscSPs/water_permits_app/internal/handlers"
	"github.com/SscSPs/water_permits_app/internal/platform/config"
	"github.com/SscSPs/water_permits_app/internal/repositories/database/memory"
	"github.com/SscSPs/water_permits_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
	cfg    *config.Config
	apps   *memory.ApplicationStore
	users  *memory.UserStore
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(handlers.RegisterValidators())

	suite.cfg = &config.Config{
		JWTSecret:         "test-secret-key-that-is-long-enough",
		JWTExpiryDuration: time.Hour,
		JWTIssuer:         "permits-test",
		RateLimit:         "1000-M",
		IsProduction:      true, // no swagger routes
	}
	suite.apps = memory.NewApplicationStore()
	suite.users = memory.NewUserStore()
	container := services.NewServiceContainer(suite.cfg, portsrepo.RepositoryProvider{
		ApplicationRepo: suite.apps,
		AuditLogRepo:    memory.NewAuditLogStore(),
		UserRepo:        suite.users,
		LedgerStore:     memory.NewReviewLedgerStore(),
	}, nil)

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, suite.cfg, container, nil, prometheus.NewRegistry())
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

// tokenFor signs an access token for a user acting under role.
func (suite *HandlerTestSuite) tokenFor(userID string, role domain.UserRole) string {
	token, err := utils.GenerateJWT(userID, "Test "+string(role), string(role), suite.cfg.JWTSecret, time.Hour, suite.cfg.JWTIssuer)
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *HandlerTestSuite) do(method, url string, role domain.UserRole, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+suite.tokenFor("u-"+string(role), role))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) seed(id string, stage domain.Stage, order int) {
	status := domain.StatusUnderReview
	if stage == domain.StageChairperson {
		status = domain.StatusSubmitted
	}
	submitted := time.Date(2026, 4, 1, 9, order, 0, 0, time.UTC)
	suite.Require().NoError(suite.apps.CreateApplication(context.Background(), domain.PermitApplication{
		ID:              id,
		ApplicationID:   "MC2026-" + id,
		ApplicantName:   "Applicant " + id,
		PermitType:      domain.PermitUrban,
		WaterSource:     domain.GroundWater,
		WaterAllocation: decimal.NewFromInt(15),
		Status:          status,
		CurrentStage:    stage,
		SubmittedAt:     &submitted,
	}))
}

func (suite *HandlerTestSuite) completeAtChair(id string) {
	url := fmt.Sprintf("/api/v1/reviews/2/applications/%s", id)
	suite.Require().Equal(http.StatusOK, suite.do(http.MethodPut, url+"/reviewed", domain.RoleChairperson, gin.H{"reviewed": true}).Code)
	suite.Require().Equal(http.StatusCreated, suite.do(http.MethodPost, url+"/comment", domain.RoleChairperson, gin.H{"comment": "Checked"}).Code)
}

func decode[T any](suite *HandlerTestSuite, w *httptest.ResponseRecorder) T {
	var out T
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// --- Test Cases ---

func (suite *HandlerTestSuite) TestHealthAndMetrics() {
	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/health", "", nil).Code)
	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/metrics", "", nil).Code)
}

func (suite *HandlerTestSuite) TestAuthRequired() {
	w := suite.do(http.MethodGet, "/api/v1/reviews/2/pending", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/reviews/2/pending", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestLogin() {
	hash, err := utils.HashPassword("s3cret-pass")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.users.SaveUser(context.Background(), domain.User{
		UserID:       uuid.NewString(),
		Username:     "chair",
		Name:         "Board Chair",
		Role:         domain.RoleChairperson,
		PasswordHash: hash,
		IsActive:     true,
	}))

	w := suite.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "chair", "password": "s3cret-pass"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.LoginResponse](suite, w)
	suite.NotEmpty(resp.Token)
	suite.Equal(domain.RoleChairperson, resp.User.Role)

	claims, err := utils.ParseAndValidateJWT(resp.Token, suite.cfg.JWTSecret)
	suite.Require().NoError(err)
	suite.Equal(string(domain.RoleChairperson), claims.Role)

	w = suite.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "chair", "password": "wrong"})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestCreateAndSubmitApplication() {
	body := gin.H{
		"applicantName":   "Ruwa Town Council",
		"physicalAddress": "1 Main Rd, Ruwa",
		"permitType":      "urban",
		"waterSource":     "ground_water",
		"waterAllocation": "250",
		"landSize":        "0",
	}

	w := suite.do(http.MethodPost, "/api/v1/applications", domain.RoleChairperson, body)
	suite.Equal(http.StatusForbidden, w.Code)

	bad := gin.H{}
	for k, v := range body {
		bad[k] = v
	}
	bad["waterAllocation"] = "0"
	w = suite.do(http.MethodPost, "/api/v1/applications", domain.RolePermittingOfficer, bad)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/applications", domain.RolePermittingOfficer, body)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.ApplicationResponse](suite, w)
	suite.Equal(domain.StageDraft, created.CurrentStage)
	suite.True(decimal.NewFromInt(250).Equal(created.WaterAllocation))

	w = suite.do(http.MethodPost, "/api/v1/applications/"+created.ID+"/submit", domain.RolePermittingOfficer, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	submitted := decode[dto.ApplicationResponse](suite, w)
	suite.Equal(domain.StageChairperson, submitted.CurrentStage)
	suite.Equal(domain.StatusSubmitted, submitted.Status)

	w = suite.do(http.MethodGet, "/api/v1/applications/"+created.ID, domain.RoleChairperson, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/applications/"+uuid.NewString(), domain.RoleChairperson, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestReviewRoutes_Errors() {
	suite.seed("a1", domain.StageChairperson, 0)
	suite.seed("a2", domain.StageCatchmentManager, 1)

	w := suite.do(http.MethodGet, "/api/v1/reviews/5/pending", domain.RoleChairperson, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/reviews/2/applications/a1/comment", domain.RoleChairperson, gin.H{"comment": "   "})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/reviews/2/applications/a1/comment", domain.RoleCatchmentManager, gin.H{"comment": "not my stage"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/reviews/2/applications/a2/comment", domain.RoleChairperson, gin.H{"comment": "late"})
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/reviews/2/applications/a1/advance", domain.RoleChairperson, nil)
	suite.Equal(http.StatusConflict, w.Code, "not ready")

	w = suite.do(http.MethodPost, "/api/v1/reviews/3/applications/a2/decision", domain.RoleCatchmentManager, gin.H{"decision": "approved"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPut, "/api/v1/reviews/2/applications/a1/reviewed", domain.RoleChairperson, gin.H{})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestSubmitBatch_Blocked() {
	suite.seed("a1", domain.StageChairperson, 0)
	suite.seed("a2", domain.StageChairperson, 1)
	suite.completeAtChair("a1")

	w := suite.do(http.MethodPost, "/api/v1/reviews/2/submit", domain.RoleChairperson, nil)
	suite.Require().Equal(http.StatusConflict, w.Code, w.Body.String())
	resp := decode[dto.BatchSubmitResponse](suite, w)
	suite.False(resp.Submitted)
	suite.True(strings.HasPrefix(resp.Message, "SUBMISSION BLOCKED"), resp.Message)
	suite.Equal([]string{"a2"}, resp.BlockedIDs)
	suite.Require().Len(resp.Blocked, 1)
	suite.Equal("MC2026-a2", resp.Blocked[0].Reference)
	suite.Contains(resp.Message, "MC2026-a2")
	suite.Empty(resp.SucceededIDs)
	suite.Equal(2, resp.Total)
	suite.Equal(1, resp.Ready)

	suite.completeAtChair("a2")
	w = suite.do(http.MethodGet, "/api/v1/reviews/2/pending", domain.RoleChairperson, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	pending := decode[dto.PendingListResponse](suite, w)
	suite.True(pending.CanSubmit)
	suite.True(decimal.NewFromInt(30).Equal(pending.TotalAllocation))

	w = suite.do(http.MethodPost, "/api/v1/reviews/2/submit", domain.RoleChairperson, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	resp = decode[dto.BatchSubmitResponse](suite, w)
	suite.True(resp.Submitted)
	suite.Equal("Successfully submitted 2 application(s)", resp.Message)
	suite.ElementsMatch([]string{"a1", "a2"}, resp.SucceededIDs)
}

func (suite *HandlerTestSuite) TestSubmitBatch_CommitFailure() {
	suite.seed("a1", domain.StageChairperson, 0)
	suite.completeAtChair("a1")
	suite.apps.FailUpdateOn("a1", errors.New("connection reset"))

	w := suite.do(http.MethodPost, "/api/v1/reviews/2/submit", domain.RoleChairperson, nil)
	suite.Require().Equal(http.StatusInternalServerError, w.Code)
	resp := decode[dto.BatchSubmitResponse](suite, w)
	suite.False(resp.Submitted)
	suite.Equal("Submission failed; no applications were moved", resp.Message)
	suite.Contains(resp.Errors, "a1")
}

func (suite *HandlerTestSuite) TestDecisionFlow() {
	suite.seed("d1", domain.StageCatchmentChairperson, 0)
	url := "/api/v1/reviews/4/applications/d1"

	w := suite.do(http.MethodPost, url+"/decision", domain.RoleCatchmentChairperson, gin.H{"decision": "rejected"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, url+"/decision", domain.RoleCatchmentChairperson, gin.H{"decision": "postponed"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, url+"/decision", domain.RoleCatchmentChairperson, gin.H{"decision": "rejected", "reason": "Over-abstraction"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	state := decode[dto.ReviewStateResponse](suite, w)
	suite.True(state.Readiness.Ready)

	w = suite.do(http.MethodPost, url+"/decide", domain.RoleCatchmentChairperson, gin.H{"decision": "rejected"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	app := decode[dto.ApplicationResponse](suite, w)
	suite.Equal(domain.StatusRejected, app.Status)
	suite.Equal(domain.StageOfficerDesk, app.CurrentStage)

	w = suite.do(http.MethodGet, "/api/v1/applications/decided", domain.RolePermittingOfficer, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	decided := decode[dto.ListApplicationsResponse](suite, w)
	suite.Len(decided.Applications, 1)

	w = suite.do(http.MethodPost, url+"/decide", domain.RoleCatchmentChairperson, gin.H{"decision": "approved"})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestOverrideCommentEdit() {
	suite.seed("a1", domain.StageChairperson, 0)
	w := suite.do(http.MethodPost, "/api/v1/reviews/2/applications/a1/comment", domain.RoleChairperson, gin.H{"comment": "Orginal"})
	suite.Require().Equal(http.StatusCreated, w.Code)
	comment := decode[dto.CommentResponse](suite, w)

	w = suite.do(http.MethodPut, "/api/v1/comments/"+comment.CommentID, domain.RoleChairperson, gin.H{"comment": "Original"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPut, "/api/v1/comments/"+comment.CommentID, domain.RoleICT, gin.H{"comment": "Original"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	edited := decode[dto.CommentResponse](suite, w)
	suite.Equal("Original", edited.Comment)
	suite.Require().NotNil(edited.EditedBy)
	suite.Equal("u-ict", *edited.EditedBy)

	w = suite.do(http.MethodGet, "/api/v1/audit-logs?applicationId="+uuid.NewString(), domain.RoleChairperson, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/audit-logs?limit=1", domain.RoleICT, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	page := decode[dto.ListAuditLogsResponse](suite, w)
	suite.Len(page.Logs, 1)
	suite.NotEmpty(page.NextToken)

	w = suite.do(http.MethodGet, "/api/v1/audit-logs?limit=10&nextToken="+page.NextToken, domain.RoleICT, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	rest := decode[dto.ListAuditLogsResponse](suite, w)
	suite.Len(rest.Logs, 1)
	suite.Empty(rest.NextToken)
	suite.NotEqual(page.Logs[0].LogID, rest.Logs[0].LogID)

	w = suite.do(http.MethodGet, "/api/v1/audit-logs", domain.RoleChairperson, nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestUsers() {
	body := gin.H{"username": "newmgr", "name": "New Manager", "role": "catchment_manager", "password": "long-enough"}

	w := suite.do(http.MethodPost, "/api/v1/users", domain.RoleChairperson, body)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/users", domain.RoleICT, body)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/v1/users", domain.RoleICT, body)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/users/me", domain.RoleICT, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}
