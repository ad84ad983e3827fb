package handlers

import (
	"net/http"
	"tourboard/internal/middleware"
	"tourboard/internal/services"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	likes *services.LikeService
}

func NewLikeHandler(likes *services.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// Toggle 点赞/取消点赞
func (h *LikeHandler) Toggle(c *gin.Context) {
	threadID, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	result, err := h.likes.Toggle(c.Request.Context(), threadID, user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LikeHandler) Status(c *gin.Context) {
	threadID, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	liked, err := h.likes.HasLiked(c.Request.Context(), threadID, user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}
