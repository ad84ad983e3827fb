package router

import (
	"net/http"
	"tourboard/internal/handlers"
	"tourboard/internal/middleware"
	"tourboard/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "tourboard_session"

// New 组装服务、中间件和全部路由
func New(db *gorm.DB, log *zap.Logger, sessionSecret string) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(log), gin.Recovery())

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400 * 30, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	notifications := services.NewNotificationService(db, log)
	cascade := services.NewCascadeService(db, log)
	users := services.NewUserService(db, log)
	reports := services.NewReportService(db, log)
	threads := services.NewThreadService(db, log, cascade)

	r.Use(middleware.LoadUser(users, notifications))

	RegisterRoutes(r, Handlers{
		Auth:         handlers.NewAuthHandler(users, cascade),
		Thread:       handlers.NewThreadHandler(threads),
		Comment:      handlers.NewCommentHandler(services.NewCommentService(db, log, notifications)),
		Like:         handlers.NewLikeHandler(services.NewLikeService(db, log)),
		Notification: handlers.NewNotificationHandler(notifications),
		User:         handlers.NewUserHandler(users, threads),
		Report:       handlers.NewReportHandler(reports),
		Admin:        handlers.NewAdminHandler(services.NewAdminService(db), cascade, reports),
	})
	return r
}

type Handlers struct {
	Auth         *handlers.AuthHandler
	Thread       *handlers.ThreadHandler
	Comment      *handlers.CommentHandler
	Like         *handlers.LikeHandler
	Notification *handlers.NotificationHandler
	User         *handlers.UserHandler
	Report       *handlers.ReportHandler
	Admin        *handlers.AdminHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.POST("/auth/register", h.Auth.Register)              // 注册
	api.POST("/auth/login", h.Auth.Login)                    // 登录
	api.POST("/auth/logout", h.Auth.Logout)                  // 退出登录
	api.GET("/threads", h.Thread.List)                       // 帖子列表
	api.GET("/threads/search", h.Thread.Search)              // 搜索
	api.GET("/threads/:id", h.Thread.Detail)                 // 帖子详情，浏览数 +1
	api.GET("/threads/:id/comments", h.Comment.Tree)         // 评论树
	api.GET("/users/:id", h.User.Profile)                    // 用户主页
	api.GET("/users/:id/threads", h.User.Threads)            // 用户发的帖子
	api.GET("/users/:id/liked-threads", h.User.LikedThreads) // 用户点赞过的帖子
	api.GET("/users/username/:username", h.User.ByUsername)  // 按用户名查找

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", h.Auth.Me)                      // 当前用户
		authorized.DELETE("/auth/me", h.Auth.DeleteAccount)        // 注销账号
		authorized.POST("/threads", h.Thread.Create)               // 发帖
		authorized.PUT("/threads/:id", h.Thread.Update)            // 编辑帖子
		authorized.DELETE("/threads/:id", h.Thread.Delete)         // 删除帖子
		authorized.POST("/threads/:id/comments", h.Comment.Create) // 发表评论
		authorized.PUT("/comments/:id", h.Comment.Update)          // 编辑评论
		authorized.DELETE("/comments/:id", h.Comment.Delete)       // 删除评论及回复
		authorized.POST("/threads/:id/like", h.Like.Toggle)        // 点赞/取消
		authorized.GET("/threads/:id/like", h.Like.Status)         // 是否已点赞
		authorized.POST("/reports", h.Report.Create)               // 举报用户
		authorized.PUT("/users/:id", h.User.UpdateProfile)         // 修改个人资料

		authorized.GET("/notifications", h.Notification.List)                     // 通知列表
		authorized.GET("/notifications/unread-count", h.Notification.UnreadCount) // 未读数
		authorized.POST("/notifications/read-all", h.Notification.ReadAll)        // 全部已读
		authorized.POST("/notifications/:id/read", h.Notification.Read)           // 单条已读
		authorized.DELETE("/notifications/:id", h.Notification.Delete)            // 删除单条通知
		authorized.DELETE("/notifications", h.Notification.DeleteBatch)           // 批量删除通知
	}

	// 管理后台 (Admin Routes)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/statistics", h.Admin.Statistics)
		admin.GET("/users", h.Admin.ListUsers)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.DELETE("/threads/:id", h.Admin.DeleteThread)
		admin.GET("/reports", h.Admin.ListReports)
	}
}
