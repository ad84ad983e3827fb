package handlers

import (
	"net/http"
	"tourboard/internal/middleware"
	"tourboard/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id"`
}

func (h *CommentHandler) Tree(c *gin.Context) {
	threadID, ok := pathID(c, "id")
	if !ok {
		return
	}

	roots, err := h.comments.Tree(c.Request.Context(), threadID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": roots})
}

func (h *CommentHandler) Create(c *gin.Context) {
	threadID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid comment body")
		return
	}

	user := middleware.CurrentUser(c)
	comment, err := h.comments.Create(c.Request.Context(), services.CreateCommentInput{
		ThreadID: threadID,
		AuthorID: user.ID,
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid comment body")
		return
	}

	user := middleware.CurrentUser(c)
	comment, err := h.comments.Update(c.Request.Context(), id, user.ID, req.Content)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	removed, err := h.comments.Delete(c.Request.Context(), id, user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
