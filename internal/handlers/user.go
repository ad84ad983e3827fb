package handlers

import (
	"net/http"
	"strconv"
	"tourboard/internal/middleware"
	"tourboard/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users   *services.UserService
	threads *services.ThreadService
}

func NewUserHandler(users *services.UserService, threads *services.ThreadService) *UserHandler {
	return &UserHandler{users: users, threads: threads}
}

type profileRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Email    string `json:"email"`
}

// Profile 用户主页
func (h *UserHandler) Profile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ByUsername 用户名换用户 id
func (h *UserHandler) ByUsername(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "nickname is required")
		return
	}

	actor := middleware.CurrentUser(c)
	user, err := h.users.UpdateProfile(c.Request.Context(), id, actor.ID, services.ProfileInput{
		Nickname: req.Nickname,
		Email:    req.Email,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Threads(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))

	threads, err := h.threads.ListByUser(c.Request.Context(), id, page)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

func (h *UserHandler) LikedThreads(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	threads, err := h.threads.LikedBy(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}
