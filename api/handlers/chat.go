package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/project-assistant/api/middleware"
	"github.com/feichai0017/project-assistant/internal/service/chat"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

type ChatHandler struct {
	service chat.ChatManager
	logger  logger.Logger
}

type CreateChatRequest struct {
	Title     string `json:"title"`
	ProjectID string `json:"project_id" binding:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func NewChatHandler(service chat.ChatManager, log logger.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: log}
}

func (h *ChatHandler) Create(c *gin.Context) {
	var req CreateChatRequest
	if err := bindJSON(c, "create chat", &req); err != nil {
		handleError(c, h.logger, err)
		return
	}

	created, err := h.service.CreateChat(c.Request.Context(), req.ProjectID, middleware.OwnerID(c), req.Title)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "Chat created successfully", created)
}

func (h *ChatHandler) Get(c *gin.Context) {
	found, err := h.service.GetChat(c.Request.Context(), c.Param("chat_id"), middleware.OwnerID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "Chat retrieved successfully", found)
}

func (h *ChatHandler) Delete(c *gin.Context) {
	deleted, err := h.service.DeleteChat(c.Request.Context(), c.Param("chat_id"), middleware.OwnerID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "Chat deleted successfully", deleted)
}

// SendMessage blocks until the assistant reply is stored.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := bindJSON(c, "send message", &req); err != nil {
		handleError(c, h.logger, err)
		return
	}

	exchange, err := h.service.SendMessage(c.Request.Context(), c.Param("project_id"), c.Param("chat_id"), middleware.OwnerID(c), req.Content)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	respond(c, "Message sent successfully", exchange)
}
