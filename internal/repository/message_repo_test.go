package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/relay-chat-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.Room{}, &models.Message{}, &models.DirectMessage{}, &models.ModerationConfig{}))
	return db
}

func seedMessage(t *testing.T, repo MessageRepository, scope MessageScope, key, author, body string, createdAt time.Time) {
	t.Helper()
	message := models.Message{
		ConversationKey: key,
		Username:        author,
		Body:            body,
		Kind:            models.MessageKindText,
		CreatedAt:       createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), scope, &message))
}

func TestWindowReturnsNewestInAscendingOrder(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		seedMessage(t, repo, RoomMessages, "general", "alice", fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	window, err := repo.Window(context.Background(), RoomMessages, "general", 3)
	require.NoError(t, err)
	require.Len(t, window, 3)
	require.Equal(t, "msg-2", window[0].Body)
	require.Equal(t, "msg-4", window[2].Body)
}

func TestClearConversationIsScoped(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))
	now := time.Now()

	seedMessage(t, repo, RoomMessages, "general", "alice", "room msg", now)
	seedMessage(t, repo, DirectMessages, "alice_bob", "alice", "dm msg", now)

	deleted, err := repo.ClearConversation(context.Background(), RoomMessages, "general")
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	count, err := repo.Count(context.Background(), DirectMessages, "alice_bob")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestDeleteByAuthorSpansBothTables(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))
	now := time.Now()

	seedMessage(t, repo, RoomMessages, "general", "alice", "one", now)
	seedMessage(t, repo, DirectMessages, "alice_bob", "alice", "two", now)
	seedMessage(t, repo, RoomMessages, "general", "bob", "three", now)

	deleted, err := repo.DeleteByAuthor(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	count, err := repo.Count(context.Background(), RoomMessages, "general")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestDeleteOlderThanKeepsRecentMessages(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))
	now := time.Now()

	seedMessage(t, repo, RoomMessages, "general", "alice", "stale", now.Add(-25*time.Hour))
	seedMessage(t, repo, DirectMessages, "alice_bob", "bob", "stale dm", now.Add(-30*time.Hour))
	seedMessage(t, repo, RoomMessages, "general", "alice", "fresh", now.Add(-time.Minute))

	deleted, err := repo.DeleteOlderThan(context.Background(), now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	window, err := repo.Window(context.Background(), RoomMessages, "general", 10)
	require.NoError(t, err)
	require.Len(t, window, 1)
	require.Equal(t, "fresh", window[0].Body)
}

func TestClearAllWipesBothTables(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t))
	now := time.Now()

	seedMessage(t, repo, RoomMessages, "general", "alice", "one", now)
	seedMessage(t, repo, RoomMessages, "random", "bob", "two", now)
	seedMessage(t, repo, DirectMessages, "alice_bob", "alice", "three", now)

	deleted, err := repo.ClearAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)

	count, err := repo.Count(context.Background(), RoomMessages, "general")
	require.NoError(t, err)
	require.Zero(t, count)
}
