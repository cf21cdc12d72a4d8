package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourceType tells where a document's content comes from.
type SourceType string

const (
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
)

// Document is one uploaded file or added URL attached to a project.
type Document struct {
	ID               string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProjectID        string           `gorm:"type:varchar(36);not null;index:idx_documents_scope" json:"project_id"`
	OwnerID          string           `gorm:"type:varchar(128);not null;index:idx_documents_scope" json:"owner_id"`
	Filename         string           `gorm:"size:2048;not null" json:"filename"`
	SourceType       SourceType       `gorm:"size:16;not null;default:file" json:"source_type"`
	S3Key            string           `gorm:"size:512;not null;default:'';index" json:"s3_key"`
	SourceURL        string           `gorm:"size:2048" json:"source_url,omitempty"`
	FileSize         int64            `gorm:"not null;default:0" json:"file_size"`
	FileType         string           `gorm:"size:255" json:"file_type"`
	ProcessingStatus ProcessingStatus `gorm:"size:16;not null;index" json:"processing_status"`
	ProcessingError  string           `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt        time.Time        `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (Document) TableName() string { return "project_documents" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
