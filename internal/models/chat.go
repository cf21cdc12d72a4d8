package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Chat struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	ProjectID string    `gorm:"type:varchar(36);not null;index" json:"project_id"`
	OwnerID   string    `gorm:"type:varchar(128);not null;index" json:"owner_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	Messages []Message `gorm:"-" json:"messages,omitempty"`
}

func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Message is one turn of a chat. Assistant replies are stored under the
// owner id of the user who triggered the turn.
type Message struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ChatID    string    `gorm:"type:varchar(36);not null;index:idx_messages_chat_created" json:"chat_id"`
	OwnerID   string    `gorm:"type:varchar(128);not null;index" json:"owner_id"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_chat_created" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
