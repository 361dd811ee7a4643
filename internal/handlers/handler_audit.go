package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/water_permits_app/internal/core/ports/services"
	"github.com/SscSPs/water_permits_app/internal/dto"
	"github.com/SscSPs/water_permits_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

type auditHandler struct {
	auditService portssvc.AuditReaderSvc
}

func registerAuditRoutes(rg *gin.RouterGroup, auditService portssvc.AuditReaderSvc) {
	h := &auditHandler{auditService: auditService}
	rg.GET("/audit-logs", h.listLogs)
}

// listLogs godoc
// @Summary List audit logs
// @Description Lists audit entries newest first. Without applicationId only ICT and the permit supervisor may list.
// @Tags audit
// @Produce json
// @Param applicationId query string false "Application ID"
// @Param limit query int false "Maximum results" default(100)
// @Param nextToken query string false "Token returned by the previous page"
// @Success 200 {object} dto.ListAuditLogsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /audit-logs [get]
func (h *auditHandler) listLogs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var params dto.ListAuditLogsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}
	logs, next, err := h.auditService.ListLogs(c.Request.Context(), actor, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list audit logs")
		return
	}
	c.JSON(http.StatusOK, dto.ToListAuditLogsResponse(logs, next))
}
