package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portssvc "github.com/SscSPs/water_permits_app/internal/core/ports/services"
	"github.com/SscSPs/water_permits_app/internal/core/workflow"
	"github.com/SscSPs/water_permits_app/internal/dto"
	"github.com/SscSPs/water_permits_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reviewHandler serves the reviewer dashboards: ledger edits, single transitions and batch
// submission for stages 2, 3 and 4.
type reviewHandler struct {
	reviewService   portssvc.ReviewLedgerSvcFacade
	workflowService portssvc.WorkflowSvcFacade
}

func newReviewHandler(rs portssvc.ReviewLedgerSvcFacade, ws portssvc.WorkflowSvcFacade) *reviewHandler {
	return &reviewHandler{reviewService: rs, workflowService: ws}
}

func registerReviewRoutes(rg *gin.RouterGroup, reviewService portssvc.ReviewLedgerSvcFacade, workflowService portssvc.WorkflowSvcFacade) {
	h := newReviewHandler(reviewService, workflowService)

	reviews := rg.Group("/reviews/:stage", h.requireReviewStage)
	{
		reviews.GET("/pending", h.listPending)
		reviews.POST("/submit", h.submitBatch)

		app := reviews.Group("/applications/:id")
		app.POST("/open", h.openReview)
		app.PUT("/reviewed", h.setReviewed)
		app.PUT("/draft", h.updateDraft)
		app.DELETE("/draft", h.discardDraft)
		app.POST("/comment", h.saveComment)
		app.POST("/decision", h.saveDecision)
		app.POST("/advance", h.advance)
		app.POST("/decide", h.decide)
	}

	rg.PUT("/comments/:commentID", h.updateComment)
}

const stageKey = "review_stage"

// requireReviewStage parses the :stage path parameter and rejects anything but 2, 3 or 4.
func (h *reviewHandler) requireReviewStage(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("stage"))
	if err != nil || !domain.Stage(n).IsReviewStage() {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "stage must be 2, 3 or 4"})
		return
	}
	c.Set(stageKey, domain.Stage(n))
	c.Next()
}

func reviewStage(c *gin.Context) domain.Stage {
	return c.MustGet(stageKey).(domain.Stage)
}

func requireActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	}
	return actor, ok
}

// listPending godoc
// @Summary List the pending set of a stage
// @Description Returns the applications at a review stage with readiness, progress counts and the summed water allocation
// @Tags reviews
// @Produce json
// @Param stage path int true "Review stage (2, 3 or 4)"
// @Success 200 {object} dto.PendingListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /reviews/{stage}/pending [get]
func (h *reviewHandler) listPending(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	resp, err := h.reviewService.ListPending(c.Request.Context(), actor, reviewStage(c))
	if err != nil {
		respondError(c, logger, err, "Failed to list pending applications")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// openReview godoc
// @Summary Open a review
// @Description Creates the reviewer's ledger entry for an application, seeded from saved comments
// @Tags reviews
// @Produce json
// @Param stage path int true "Review stage"
// @Param id path string true "Application ID"
// @Success 200 {object} dto.ReviewStateResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Application is not at this stage"
// @Security BearerAuth
// @Router /reviews/{stage}/applications/{id}/open [post]
func (h *reviewHandler) openReview(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	resp, err := h.reviewService.OpenReview(c.Request.Context(), actor, reviewStage(c), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to open review")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// setReviewed godoc
// @Summary Mark an application reviewed
// @Tags reviews
// @Accept json
// @Produce json
// @Param stage path int true "Review stage"
// @Param id path string true "Application ID"
// @Param body body dto.SetReviewedRequest true "Reviewed flag"
// @Success 200 {object} dto.ReviewStateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /reviews/{stage}/applications/{id}/reviewed [put]
func (h *reviewHandler) setReviewed(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.SetReviewedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	resp, err := h.reviewService.SetReviewed(c.Request.Context(), actor, reviewStage(c), c.Param("id"), *req.Reviewed)
	if err != nil {
		respondError(c, logger, err, "Failed to update review")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// updateDraft godoc
// @Summary Store draft comment text
// @Tags reviews
// @Accept json
// @Produce json
// @Param stage path int true "Review stage"
// @Param id path string true "Application ID"
// @Param body body dto.UpdateDraftRequest true "Draft text"
// @Success 200 {object} dto.ReviewStateResponse
// @Security BearerAuth
// @Router /reviews/{stage}/applications/{id}/draft [put]
func (h *reviewHandler) updateDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	resp, err := h.reviewService.UpdateDraft(c.Request.Context(), actor, reviewStage(c), c.Param("id"), req.DraftComment)
	if err != nil {
		respondError(c, logger, err, "Failed to store draft")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// discardDraft godoc
// @Summary Discard the draft comment
// @Description Drops unsaved draft text. Saved comments are untouched.
// @Tags reviews
// @Param stage path int true "Review stage"
// @Param id path string true "Application ID"
// @Success 204
// @Security BearerAuth
// @Router /reviews/{stage}/applications/{id}/draft [delete]
func (h *reviewHandler) discardDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.reviewService.DiscardDraft(c.Request.Context(), actor, reviewStage(c), c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to discard draft")
		return
	}
	c.Status(http.StatusNoContent)
}

// saveComment godoc
// @Summary Save a reviewer comment
// @Description Persists a comment at the reviewer's stage. Blank comments are rejected.
// @Tags reviews
// @Accept json
// @Produce json
// @Param stage path int true "Review stage"
// @Param id path string true "Application ID"
// @Param body body dto.SaveCommentRequest true "Comment"
// @Success 201 {object} dto.CommentResponse
// @Failure 400 {object} ErrorResponse "Empty comment"
// @Failure 409 {object} ErrorResponse "Application has left this stage"
// @Security BearerAuth
// @Router /reviews/{stage}/applications/{id}/comment [post]
func (h *reviewHandler) saveComment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.SaveCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	comment, err := h.reviewService.SaveComment(c.Request.Context(), actor, reviewStage(c), c.Param("id"), req.Comment)
	if err != nil {
		respondError(c, logger, err, "Failed to save comment")
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommentResponse(comment))
}

// saveDecision godoc
// @Summary Record the final decision
// @Description Stage 4 only. Rejecting requires a reason, which is saved as a comment.
// @Tags reviews
// @Accept json
// @Produce json
// @Param stage path int true "Review stage (4)"
// @Param id path string true "Application ID"
// @Param body body dto.SaveDecisionRequest true "Decision"
// @Success 200 {object} dto.ReviewStateResponse
// @Failure 400 {object} ErrorResponse "Missing rejection reason"
// @Security BearerAuth
// @Router /reviews/{stage}/applications/{id}/decision [post]
func (h *reviewHandler) saveDecision(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if reviewStage(c) != domain.StageCatchmentChairperson {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "decisions are recorded at stage 4"})
		return
	}
	var req dto.SaveDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	resp, err := h.reviewService.SaveDecision(c.Request.Context(), actor, c.Param("id"), req.Decision, req.Reason)
	if err != nil {
		respondError(c, logger, err, "Failed to save decision")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// advance godoc
// @Summary Advance one application
// @Description Moves a ready application to the next review stage. Repeating a completed advance is a no-op.
// @Tags reviews
// @Produce json
// @Param stage path int true "Stage the application is expected at (2 or 3)"
// @Param id path string true "Application ID"
// @Success 200 {object} dto.ApplicationResponse
// @Failure 409 {object} ErrorResponse "Not ready, or already moved on"
// @Security BearerAuth
// @Router /reviews/{stage}/applications/{id}/advance [post]
func (h *reviewHandler) advance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	app, err := h.workflowService.Advance(c.Request.Context(), actor, c.Param("id"), reviewStage(c))
	if err != nil {
		respondError(c, logger, err, "Failed to advance application")
		return
	}
	c.JSON(http.StatusOK, dto.ToApplicationResponse(app))
}

// decide godoc
// @Summary Decide one application
// @Description Applies the final decision at stage 4 and returns the application to the permitting officer.
// @Tags reviews
// @Accept json
// @Produce json
// @Param stage path int true "Review stage (4)"
// @Param id path string true "Application ID"
// @Param body body dto.SaveDecisionRequest true "Decision"
// @Success 200 {object} dto.ApplicationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /reviews/{stage}/applications/{id}/decide [post]
func (h *reviewHandler) decide(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if reviewStage(c) != domain.StageCatchmentChairperson {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "decisions are recorded at stage 4"})
		return
	}
	var req dto.SaveDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	app, err := h.workflowService.Decide(c.Request.Context(), actor, c.Param("id"), req.Decision, req.Reason)
	if err != nil {
		respondError(c, logger, err, "Failed to decide application")
		return
	}
	c.JSON(http.StatusOK, dto.ToApplicationResponse(app))
}

// submitBatch godoc
// @Summary Submit the pending set
// @Description Transitions every application at the stage, or none when any is incomplete.
// @Tags reviews
// @Produce json
// @Param stage path int true "Review stage"
// @Success 200 {object} dto.BatchSubmitResponse
// @Failure 409 {object} dto.BatchSubmitResponse "Submission blocked"
// @Failure 500 {object} dto.BatchSubmitResponse "Commit failed"
// @Security BearerAuth
// @Router /reviews/{stage}/submit [post]
func (h *reviewHandler) submitBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	result, err := h.workflowService.SubmitBatch(c.Request.Context(), actor, reviewStage(c))
	var blocked *workflow.BatchBlockedError
	var partial *workflow.PartialCommitError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.ToBatchSubmitResponse(result,
			fmt.Sprintf("Successfully submitted %d application(s)", len(result.SucceededIDs))))
	case errors.As(err, &blocked) && result != nil:
		c.JSON(http.StatusConflict, dto.ToBatchSubmitResponse(result, "SUBMISSION BLOCKED: "+blocked.Error()))
	case errors.As(err, &partial) && result != nil:
		msg := "Submission failed; no applications were moved"
		if len(partial.Succeeded) > 0 {
			msg = fmt.Sprintf("Submission failed; %d application(s) could not be rolled back", len(partial.Succeeded))
		}
		logger.Error("Batch submission failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ToBatchSubmitResponse(result, msg))
	default:
		respondError(c, logger, err, "Failed to submit batch")
	}
}

// updateComment godoc
// @Summary Override-edit a saved comment
// @Description Replaces a comment's text. Only the ICT role may edit saved comments.
// @Tags reviews
// @Accept json
// @Produce json
// @Param commentID path string true "Comment ID"
// @Param body body dto.UpdateCommentRequest true "New text"
// @Success 200 {object} dto.CommentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /comments/{commentID} [put]
func (h *reviewHandler) updateComment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	comment, err := h.reviewService.UpdateComment(c.Request.Context(), actor, c.Param("commentID"), req.Comment)
	if err != nil {
		respondError(c, logger, err, "Failed to edit comment")
		return
	}
	c.JSON(http.StatusOK, dto.ToCommentResponse(comment))
}
