package chat

import (
	"context"

	"github.com/feichai0017/project-assistant/internal/models"
)

// Exchange is the pair of messages persisted by one SendMessage call.
type Exchange struct {
	UserMessage      *models.Message `json:"userMessage"`
	AssistantMessage *models.Message `json:"assistantMessage"`
}

type ChatManager interface {
	CreateChat(ctx context.Context, projectID, ownerID, title string) (*models.Chat, error)
	GetChat(ctx context.Context, chatID, ownerID string) (*models.Chat, error)
	DeleteChat(ctx context.Context, chatID, ownerID string) (*models.Chat, error)
	SendMessage(ctx context.Context, projectID, chatID, ownerID, content string) (*Exchange, error)
}
