package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/activity-stream-api/internal/models"
)

// ErrDuplicateAllowedModel is returned when a registration reuses the name or
// the model tag of an existing allow-list entry.
var ErrDuplicateAllowedModel = errors.New("allowed model already registered")

// AllowedModelRepository manages the allow-list of entity types that may
// appear as the object or target of an activity.
type AllowedModelRepository interface {
	Register(ctx context.Context, entry *models.AllowedModel) error
	List(ctx context.Context) ([]models.AllowedModel, error)
	IsAllowed(ctx context.Context, model string) (bool, error)
}

type allowedModelRepository struct {
	db *gorm.DB
}

// NewAllowedModelRepository constructs the allow-list repository.
func NewAllowedModelRepository(db *gorm.DB) AllowedModelRepository {
	return &allowedModelRepository{db: db}
}

func (r *allowedModelRepository) Register(ctx context.Context, entry *models.AllowedModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.AllowedModel{}).
			Where("name = ? OR model = ?", entry.Name, entry.Model).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: name %q or model %q", ErrDuplicateAllowedModel, entry.Name, entry.Model)
		}
		return tx.Create(entry).Error
	})
}

func (r *allowedModelRepository) List(ctx context.Context) ([]models.AllowedModel, error) {
	var entries []models.AllowedModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *allowedModelRepository) IsAllowed(ctx context.Context, model string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AllowedModel{}).
		Where("model = ?", model).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
