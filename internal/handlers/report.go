package handlers

import (
	"net/http"
	"tourboard/internal/middleware"
	"tourboard/internal/services"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type reportRequest struct {
	TargetID uint   `json:"target_id" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "target_id and reason are required")
		return
	}

	user := middleware.CurrentUser(c)
	report, err := h.reports.Create(c.Request.Context(), user.ID, req.TargetID, req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
