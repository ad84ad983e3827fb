package middleware

import (
	"net/http"
	"tourboard/internal/models"
	"tourboard/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"
const UnreadCountKey = "unread_count"
const SessionUserKey = "user_id"

// CurrentUser 返回 LoadUser 放进上下文的用户，未登录返回 nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// LoadUser retrieves user from session and sets to context
func LoadUser(users *services.UserService, notifications *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserKey).(uint)
		if ok {
			user, err := users.Get(c.Request.Context(), userID)
			if err == nil {
				c.Set(CheckUserKey, user)
				if count, err := notifications.UnreadCount(c.Request.Context(), user.ID); err == nil {
					c.Set(UnreadCountKey, count)
				}
			} else {
				// 账号已被删除，清掉失效会话
				session.Delete(SessionUserKey)
				_ = session.Save()
			}
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}
