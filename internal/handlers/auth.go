package handlers

import (
	"net/http"
	"tourboard/internal/middleware"
	"tourboard/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users   *services.UserService
	cascade *services.CascadeService
}

func NewAuthHandler(users *services.UserService, cascade *services.CascadeService) *AuthHandler {
	return &AuthHandler{users: users, cascade: cascade}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Nickname: req.Nickname,
		Email:    req.Email,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	// 注册后直接登录
	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	_ = session.Save()
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	unread, _ := c.Get(middleware.UnreadCountKey)
	c.JSON(http.StatusOK, gin.H{"user": user, "unread_count": unread})
}

// DeleteAccount 注销自己的账号，管理员账号不可注销
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)
	result, err := h.cascade.DeleteUser(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.JSON(http.StatusOK, result)
}
