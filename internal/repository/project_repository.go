package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/feichai0017/project-assistant/internal/models"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetByIDAndOwner(ctx context.Context, projectID, ownerID string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Select("id", "name", "owner_id", "created_at").
		Where("id = ? AND owner_id = ?", projectID, ownerID).
		First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project failed: %w", err)
	}
	return &project, nil
}
