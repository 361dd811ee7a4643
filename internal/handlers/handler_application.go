package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/water_permits_app/internal/core/ports/services"
	"github.com/SscSPs/water_permits_app/internal/dto"
	"github.com/SscSPs/water_permits_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// applicationHandler handles HTTP requests for permit applications.
type applicationHandler struct {
	applicationService portssvc.ApplicationSvcFacade
}

func newApplicationHandler(as portssvc.ApplicationSvcFacade) *applicationHandler {
	return &applicationHandler{applicationService: as}
}

func registerApplicationRoutes(rg *gin.RouterGroup, applicationService portssvc.ApplicationSvcFacade) {
	h := newApplicationHandler(applicationService)

	applications := rg.Group("/applications")
	{
		applications.POST("", h.createApplication)
		applications.GET("/decided", h.listDecided)
		applications.GET("/:id", h.getApplication)
		applications.GET("/:id/comments", h.listComments)
		applications.POST("/:id/submit", h.submitApplication)
	}
}

// createApplication godoc
// @Summary Create a permit application
// @Description Opens a draft application at stage 0. Only the permitting officer may create applications.
// @Tags applications
// @Accept json
// @Produce json
// @Param application body dto.CreateApplicationRequest true "Application details"
// @Success 201 {object} dto.ApplicationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications [post]
func (h *applicationHandler) createApplication(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateApplication", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	app, err := h.applicationService.CreateApplication(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create application")
		return
	}
	c.JSON(http.StatusCreated, dto.ToApplicationResponse(app))
}

// getApplication godoc
// @Summary Get a permit application
// @Description Retrieves an application with its workflow comments
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} dto.GetApplicationResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id} [get]
func (h *applicationHandler) getApplication(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	app, err := h.applicationService.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve application")
		return
	}
	c.JSON(http.StatusOK, dto.GetApplicationResponse{
		Application: dto.ToApplicationResponse(app),
		Comments:    dto.ToCommentResponses(app.WorkflowComments),
	})
}

// listComments godoc
// @Summary List workflow comments
// @Description Lists an application's comments in the order they were written
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {array} dto.CommentResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/comments [get]
func (h *applicationHandler) listComments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	comments, err := h.applicationService.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to list comments")
		return
	}
	c.JSON(http.StatusOK, dto.ToCommentResponses(comments))
}

// submitApplication godoc
// @Summary Submit a draft application
// @Description Moves a draft from stage 0 to the chairperson at stage 2. Resubmitting is a no-op.
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} dto.ApplicationResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Not a draft, or role cannot submit"
// @Security BearerAuth
// @Router /applications/{id}/submit [post]
func (h *applicationHandler) submitApplication(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	app, err := h.applicationService.SubmitApplication(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to submit application")
		return
	}
	c.JSON(http.StatusOK, dto.ToApplicationResponse(app))
}

// listDecided godoc
// @Summary List decided permits
// @Description Lists approved and rejected applications, most recent decision first
// @Tags applications
// @Produce json
// @Param limit query int false "Maximum results" default(50)
// @Success 200 {object} dto.ListApplicationsResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /applications/decided [get]
func (h *applicationHandler) listDecided(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var params dto.ListApplicationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	apps, err := h.applicationService.ListDecided(c.Request.Context(), actor, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list decided applications")
		return
	}
	c.JSON(http.StatusOK, dto.ListApplicationsResponse{Applications: dto.ToApplicationResponses(apps)})
}
