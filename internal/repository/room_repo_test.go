package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/relay-chat-api/internal/models"
)

func TestEnsureGeneralIsIdempotent(t *testing.T) {
	repo := NewRoomRepository(setupTestDB(t))

	require.NoError(t, repo.EnsureGeneral(context.Background()))
	require.NoError(t, repo.EnsureGeneral(context.Background()))

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Equal(t, models.GeneralRoomID, rooms[0].ID)
}

func TestListPutsGeneralFirst(t *testing.T) {
	repo := NewRoomRepository(setupTestDB(t))

	require.NoError(t, repo.Create(context.Background(), &models.Room{ID: "aaa", Name: "aaa", Type: models.RoomTypePublic}))
	require.NoError(t, repo.EnsureGeneral(context.Background()))
	require.NoError(t, repo.Create(context.Background(), &models.Room{ID: "zzz", Name: "zzz", Type: models.RoomTypePublic}))

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	require.Equal(t, models.GeneralRoomID, rooms[0].ID)
}

func TestDeleteWithMessagesRemovesRoomHistory(t *testing.T) {
	db := setupTestDB(t)
	rooms := NewRoomRepository(db)
	messages := NewMessageRepository(db)

	require.NoError(t, rooms.Create(context.Background(), &models.Room{ID: "random", Name: "random", Type: models.RoomTypePublic}))
	seedMessage(t, messages, RoomMessages, "random", "alice", "doomed", time.Now())
	seedMessage(t, messages, RoomMessages, "general", "alice", "kept", time.Now())

	require.NoError(t, rooms.DeleteWithMessages(context.Background(), "random"))

	_, err := rooms.Get(context.Background(), "random")
	require.Error(t, err)

	count, err := messages.Count(context.Background(), RoomMessages, "random")
	require.NoError(t, err)
	require.Zero(t, count)

	kept, err := messages.Count(context.Background(), RoomMessages, "general")
	require.NoError(t, err)
	require.Equal(t, int64(1), kept)
}
