package handlers

import (
	"net/http"
	"tourboard/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admin   *services.AdminService
	cascade *services.CascadeService
	reports *services.ReportService
}

func NewAdminHandler(admin *services.AdminService, cascade *services.CascadeService, reports *services.ReportService) *AdminHandler {
	return &AdminHandler{admin: admin, cascade: cascade, reports: reports}
}

func (h *AdminHandler) Statistics(c *gin.Context) {
	stats, err := h.admin.Statistics(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// DeleteUser 管理员删除用户及其全部内容，管理员账号受保护
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.cascade.DeleteUser(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) DeleteThread(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.cascade.DeleteThread(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) ListReports(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
