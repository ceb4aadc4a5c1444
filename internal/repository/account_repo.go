package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/relay-chat-api/internal/models"
)

// AccountRepository persists chat accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByUsername(ctx context.Context, username string) (models.Account, error)
	SetOnline(ctx context.Context, username string, online bool) error
	SetModerator(ctx context.Context, username string, moderator bool) error
	Delete(ctx context.Context, username string) error
	ListOnline(ctx context.Context, excluding string) ([]models.Account, error)
	ListAll(ctx context.Context, excluding string) ([]models.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository constructs an account repository backed by GORM.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "username = ?", username).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (r *accountRepository) SetOnline(ctx context.Context, username string, online bool) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{"online": online, "last_seen": time.Now().UTC()}).Error
}

func (r *accountRepository) SetModerator(ctx context.Context, username string, moderator bool) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Update("is_moderator", moderator).Error
}

func (r *accountRepository) Delete(ctx context.Context, username string) error {
	return r.db.WithContext(ctx).Delete(&models.Account{}, "username = ?", username).Error
}

func (r *accountRepository) ListOnline(ctx context.Context, excluding string) ([]models.Account, error) {
	var accounts []models.Account
	query := r.db.WithContext(ctx).Where("online = ?", true)
	if excluding != "" {
		query = query.Where("username <> ?", excluding)
	}
	if err := query.Order("username ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) ListAll(ctx context.Context, excluding string) ([]models.Account, error) {
	var accounts []models.Account
	query := r.db.WithContext(ctx)
	if excluding != "" {
		query = query.Where("username <> ?", excluding)
	}
	if err := query.Order("username ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
