package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/project-assistant/internal/apperr"
	"github.com/feichai0017/project-assistant/internal/service/chat"
	"github.com/feichai0017/project-assistant/internal/service/document"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

type Handlers struct {
	Document *DocumentHandler
	Chat     *ChatHandler
	Health   *HealthHandler
}

func NewHandlers(
	documentService document.DocumentManager,
	chatService chat.ChatManager,
	version string,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(documentService, log),
		Chat:     NewChatHandler(chatService, log),
		Health:   NewHealthHandler(version),
	}
}

// Response 成功响应
type Response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func respond(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Message: message, Data: data})
}

// statusFor maps an error kind to the HTTP status returned to the client.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleError 统一错误处理
func handleError(c *gin.Context, log logger.Logger, err error) {
	status := statusFor(err)
	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
		logger.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), log).Error("Request failed", fields...)
	} else {
		logger.FromContext(c.Request.Context(), log).Debug("Request rejected", fields...)
	}
	c.JSON(status, ErrorResponse{Detail: err.Error()})
}

func bindJSON(c *gin.Context, op string, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return apperr.Validation(op, "invalid request body: %v", err)
	}
	return nil
}
