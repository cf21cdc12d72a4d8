package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/project-assistant/api/handlers"
	"github.com/feichai0017/project-assistant/api/middleware"
	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, cfg *config.Config, log logger.Logger) {
	// 全局中间件
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowOrigins))

	// 健康检查
	r.GET("/health", h.Health.Check)

	api := r.Group("/api")
	api.Use(middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.Issuer))

	projects := api.Group("/projects/:project_id")
	{
		projects.GET("/files", h.Document.List)
		projects.POST("/files/upload-url", h.Document.RequestUploadURL)
		projects.POST("/files/confirm", h.Document.ConfirmUpload)
		projects.GET("/files/:file_id", h.Document.Get)
		projects.DELETE("/files/:file_id", h.Document.Delete)
		projects.POST("/files/:file_id/retry", h.Document.Retry)
		projects.POST("/urls", h.Document.AddURL)
		projects.POST("/chats/:chat_id/messages", h.Chat.SendMessage)
	}

	chats := api.Group("/chats")
	{
		chats.POST("", h.Chat.Create)
		chats.GET("/:chat_id", h.Chat.Get)
		chats.DELETE("/:chat_id", h.Chat.Delete)
	}
}
