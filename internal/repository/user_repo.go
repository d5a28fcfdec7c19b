package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/activity-stream-api/internal/models"
)

// UserRepository persists the acting entities behind activities.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id uint) (models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}
