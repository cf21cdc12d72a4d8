package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/feichai0017/project-assistant/internal/models"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// Get returns nil, nil when no document matches id inside the project and owner scope.
func (r *DocumentRepository) Get(ctx context.Context, projectID, ownerID, id string) (*models.Document, error) {
	return r.first(ctx, "id = ? AND project_id = ? AND owner_id = ?", id, projectID, ownerID)
}

func (r *DocumentRepository) GetByObjectKey(ctx context.Context, projectID, ownerID, key string) (*models.Document, error) {
	return r.first(ctx, "s3_key = ? AND project_id = ? AND owner_id = ?", key, projectID, ownerID)
}

func (r *DocumentRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).Where(query, args...).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByProject(ctx context.Context, projectID, ownerID string) ([]models.Document, error) {
	docs := make([]models.Document, 0)
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND owner_id = ?", projectID, ownerID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// UpdateStatus moves the document from one status to another only if it is
// still in from. It reports false when no row matched: the document was
// deleted or another writer moved it first.
func (r *DocumentRepository) UpdateStatus(
	ctx context.Context,
	doc *models.Document,
	from, to models.ProcessingStatus,
	processingError string,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND project_id = ? AND owner_id = ? AND processing_status = ?",
			doc.ID, doc.ProjectID, doc.OwnerID, from).
		Updates(map[string]interface{}{
			"processing_status": to,
			"processing_error":  processingError,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("update document status failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, projectID, ownerID, id string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ? AND owner_id = ?", id, projectID, ownerID).
		Delete(&models.Document{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete document failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
