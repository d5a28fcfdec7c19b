package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/activity-stream-api/internal/models"
)

// StreamFilter narrows and paginates activity queries. The zero value selects
// every record.
type StreamFilter struct {
	ActorID *uint
	Verb    string
	Offset  int
	Limit   int
}

// ActivityRepository persists immutable activity records.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context, filter StreamFilter) ([]models.Activity, error)
	Get(ctx context.Context, id uint) (models.Activity, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Delete(ctx context.Context, ids []uint) (int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs the activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) List(ctx context.Context, filter StreamFilter) ([]models.Activity, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.Verb != "" {
		query = query.Where("verb = ?", filter.Verb)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	// Newest first; id breaks creation-time ties so pages stay stable.
	var activities []models.Activity
	if err := query.Order("created_at DESC").Order("id DESC").Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) Get(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

func (r *activityRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *activityRepository) Delete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&models.Activity{}, ids)
	return result.RowsAffected, result.Error
}
