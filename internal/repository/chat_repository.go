package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/feichai0017/project-assistant/internal/models"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		return fmt.Errorf("create chat failed: %w", err)
	}
	return nil
}

func (r *ChatRepository) GetByIDAndOwner(ctx context.Context, chatID, ownerID string) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", chatID, ownerID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat failed: %w", err)
	}
	return &chat, nil
}

// DeleteWithMessages removes the chat and its messages in one transaction and
// returns how many chat rows were deleted.
func (r *ChatRepository) DeleteWithMessages(ctx context.Context, chatID, ownerID string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", chatID, ownerID).Delete(&models.Chat{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if deleted == 0 {
			return nil
		}
		return tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("delete chat failed: %w", err)
	}
	return deleted, nil
}
