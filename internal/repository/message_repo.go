package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/relay-chat-api/internal/models"
)

// MessageScope selects which of the two message tables an operation targets.
type MessageScope struct {
	table string
}

// The two message collections.
var (
	RoomMessages   = MessageScope{table: "messages"}
	DirectMessages = MessageScope{table: "direct_messages"}
)

// String names the scope for logs and events.
func (s MessageScope) String() string { return s.table }

// ScopeFromName resolves an event scope name back to a MessageScope.
func ScopeFromName(name string) (MessageScope, bool) {
	switch name {
	case RoomMessages.table:
		return RoomMessages, true
	case DirectMessages.table:
		return DirectMessages, true
	default:
		return MessageScope{}, false
	}
}

// MessageRepository persists room and direct messages.
type MessageRepository interface {
	Create(ctx context.Context, scope MessageScope, message *models.Message) error
	// Window returns the newest limit messages of a conversation in ascending
	// chronological order.
	Window(ctx context.Context, scope MessageScope, key string, limit int) ([]models.Message, error)
	Count(ctx context.Context, scope MessageScope, key string) (int64, error)
	ClearConversation(ctx context.Context, scope MessageScope, key string) (int64, error)
	DeleteByAuthor(ctx context.Context, username string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	ClearAll(ctx context.Context) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, scope MessageScope, message *models.Message) error {
	return r.db.WithContext(ctx).Table(scope.table).Create(message).Error
}

func (r *messageRepository) Window(ctx context.Context, scope MessageScope, key string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var messages []models.Message
	err := r.db.WithContext(ctx).Table(scope.table).
		Where("conversation_key = ?", key).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// The descending fetch is a query-efficiency artifact; reverse to
	// chronological order for delivery.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepository) Count(ctx context.Context, scope MessageScope, key string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(scope.table).
		Where("conversation_key = ?", key).
		Count(&count).Error
	return count, err
}

func (r *messageRepository) ClearConversation(ctx context.Context, scope MessageScope, key string) (int64, error) {
	result := r.db.WithContext(ctx).Table(scope.table).
		Where("conversation_key = ?", key).
		Delete(&models.Message{})
	return result.RowsAffected, result.Error
}

// DeleteByAuthor removes every message authored by the user from both tables
// in one transaction.
func (r *messageRepository) DeleteByAuthor(ctx context.Context, username string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, scope := range []MessageScope{RoomMessages, DirectMessages} {
			result := tx.Table(scope.table).Where("username = ?", username).Delete(&models.Message{})
			if result.Error != nil {
				return result.Error
			}
			deleted += result.RowsAffected
		}
		return nil
	})
	return deleted, err
}

// DeleteOlderThan removes every message strictly older than the cutoff from
// both tables in one transaction. The selection is unbounded: a very large
// backlog is deleted in a single statement per table.
func (r *messageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, scope := range []MessageScope{RoomMessages, DirectMessages} {
			result := tx.Table(scope.table).Where("created_at < ?", cutoff).Delete(&models.Message{})
			if result.Error != nil {
				return result.Error
			}
			deleted += result.RowsAffected
		}
		return nil
	})
	return deleted, err
}

// ClearAll removes every message from both tables in one transaction.
func (r *messageRepository) ClearAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, scope := range []MessageScope{RoomMessages, DirectMessages} {
			result := tx.Table(scope.table).Where("1 = 1").Delete(&models.Message{})
			if result.Error != nil {
				return result.Error
			}
			deleted += result.RowsAffected
		}
		return nil
	})
	return deleted, err
}
