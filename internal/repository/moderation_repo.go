package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/relay-chat-api/internal/models"
)

// ModerationRepository persists the singleton moderation config.
type ModerationRepository interface {
	Get(ctx context.Context) (models.ModerationConfig, error)
	Save(ctx context.Context, config *models.ModerationConfig) error
}

type moderationRepository struct {
	db *gorm.DB
}

// NewModerationRepository constructs a moderation repository backed by GORM.
func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

// Get returns the singleton config, creating an empty one on first access.
func (r *moderationRepository) Get(ctx context.Context) (models.ModerationConfig, error) {
	var config models.ModerationConfig
	err := r.db.WithContext(ctx).First(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		config = models.ModerationConfig{ID: 1}
		if err := r.db.WithContext(ctx).Create(&config).Error; err != nil {
			return models.ModerationConfig{}, err
		}
		return config, nil
	}
	if err != nil {
		return models.ModerationConfig{}, err
	}
	return config, nil
}

func (r *moderationRepository) Save(ctx context.Context, config *models.ModerationConfig) error {
	return r.db.WithContext(ctx).Save(config).Error
}
