package handlers

import (
	"net/http"
	"tourboard/internal/middleware"
	"tourboard/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type deleteNotificationsRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	list, err := h.notifications.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := middleware.CurrentUser(c)
	count, err := h.notifications.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.notifications.MarkRead(c.Request.Context(), user.ID, id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	user := middleware.CurrentUser(c)
	marked, err := h.notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// Delete 删除单条通知
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	removed, err := h.notifications.DeleteByIDs(c.Request.Context(), user.ID, []uint{id})
	if err != nil {
		RespondError(c, err)
		return
	}
	if removed == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteBatch 批量删除，不存在的 id 直接忽略
func (h *NotificationHandler) DeleteBatch(c *gin.Context) {
	var req deleteNotificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "ids are required")
		return
	}

	user := middleware.CurrentUser(c)
	removed, err := h.notifications.DeleteByIDs(c.Request.Context(), user.ID, req.IDs)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}
