package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/models"
	"github.com/noah-isme/relay-chat-api/internal/repository"
)

type moderationFixture struct {
	accounts   *accountRepoStub
	rooms      *roomRepoStub
	messages   *messageRepoStub
	moderation *moderationRepoStub
	streams    *streamStub
	svc        ModerationService
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	f := &moderationFixture{
		accounts:   newAccountRepoStub(),
		rooms:      newRoomRepoStub(),
		messages:   newMessageRepoStub(),
		moderation: &moderationRepoStub{},
		streams:    &streamStub{},
	}
	f.svc = NewModerationService(f.accounts, f.rooms, f.messages, f.moderation, f.streams, testLogger())

	require.NoError(t, f.accounts.Create(context.Background(), &models.Account{Username: "mod", PasswordHash: "x", IsModerator: true}))
	require.NoError(t, f.accounts.Create(context.Background(), &models.Account{Username: "alice", PasswordHash: "x"}))
	require.NoError(t, f.rooms.EnsureGeneral(context.Background()))
	return f
}

func (f *moderationFixture) seedMessage(t *testing.T, scope repository.MessageScope, key, author string) {
	t.Helper()
	require.NoError(t, f.messages.Create(context.Background(), scope, &models.Message{
		ConversationKey: key,
		Username:        author,
		Body:            "text",
		Kind:            models.MessageKindText,
		CreatedAt:       time.Now(),
	}))
}

func TestModerationActionsRequireServerSideModeratorFlag(t *testing.T) {
	f := newModerationFixture(t)

	// The flag is re-read from the store, not trusted from the caller.
	_, err := f.svc.ToggleBan(context.Background(), "alice", "mod")
	require.ErrorIs(t, err, ErrNotModerator)

	_, err = f.svc.ToggleBan(context.Background(), "ghost", "alice")
	require.ErrorIs(t, err, ErrNotModerator)
}

func TestToggleBanRoundTrip(t *testing.T) {
	f := newModerationFixture(t)

	cfg, err := f.svc.ToggleBan(context.Background(), "mod", "alice")
	require.NoError(t, err)
	require.True(t, cfg.IsBanned("alice"))

	cfg, err = f.svc.ToggleBan(context.Background(), "mod", "alice")
	require.NoError(t, err)
	require.False(t, cfg.IsBanned("alice"))
}

func TestFilterWordAddAndRemovePersist(t *testing.T) {
	f := newModerationFixture(t)

	cfg, err := f.svc.AddFilterWord(context.Background(), "mod", " Spoiler ")
	require.NoError(t, err)
	require.Equal(t, []string{"spoiler"}, []string(cfg.FilteredWords))

	cfg, err = f.svc.RemoveFilterWord(context.Background(), "mod", "SPOILER")
	require.NoError(t, err)
	require.Empty(t, cfg.FilteredWords)
}

func TestToggleModeratorRejectsSelf(t *testing.T) {
	f := newModerationFixture(t)

	_, err := f.svc.ToggleModerator(context.Background(), "mod", "mod")
	require.ErrorIs(t, err, ErrSelfTarget)

	granted, err := f.svc.ToggleModerator(context.Background(), "mod", "alice")
	require.NoError(t, err)
	require.True(t, granted)

	account, err := f.accounts.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, account.IsModerator)
}

func TestDeleteAccountCascadesToMessages(t *testing.T) {
	f := newModerationFixture(t)
	f.seedMessage(t, repository.RoomMessages, "general", "alice")
	f.seedMessage(t, repository.DirectMessages, "alice_mod", "alice")
	f.seedMessage(t, repository.RoomMessages, "general", "mod")

	require.NoError(t, f.svc.DeleteAccount(context.Background(), "mod", "alice"))

	_, err := f.accounts.GetByUsername(context.Background(), "alice")
	require.Error(t, err)

	count, err := f.messages.Count(context.Background(), repository.RoomMessages, "general")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Equal(t, 1, f.streams.allCount)
}

func TestDeleteAccountRejectsSelf(t *testing.T) {
	f := newModerationFixture(t)
	require.ErrorIs(t, f.svc.DeleteAccount(context.Background(), "mod", "mod"), ErrSelfTarget)
}

func TestDeleteRoomProtectsGeneral(t *testing.T) {
	f := newModerationFixture(t)
	require.ErrorIs(t, f.svc.DeleteRoom(context.Background(), "mod", models.GeneralRoomID), ErrReservedRoom)
}

func TestClearConversationPeerTargetsDirectKey(t *testing.T) {
	f := newModerationFixture(t)
	f.seedMessage(t, repository.DirectMessages, "alice_mod", "alice")

	deleted, err := f.svc.ClearConversation(context.Background(), "mod", dto.ClearConversationRequest{Peer: "alice"})
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
	require.Equal(t, []string{"direct_messages/alice_mod"}, f.streams.broadcasts)
}

func TestClearAllDemandsExactConfirmation(t *testing.T) {
	f := newModerationFixture(t)
	f.seedMessage(t, repository.RoomMessages, "general", "alice")

	_, err := f.svc.ClearAll(context.Background(), "mod", "delete everything")
	require.ErrorIs(t, err, ErrBadConfirmation)

	deleted, err := f.svc.ClearAll(context.Background(), "mod", dto.ClearAllConfirmPhrase)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
	require.Equal(t, 1, f.streams.allCount)
}

func TestPanelExcludesActor(t *testing.T) {
	f := newModerationFixture(t)

	panel, err := f.svc.Panel(context.Background(), "mod")
	require.NoError(t, err)
	require.Len(t, panel.Accounts, 1)
	require.Equal(t, "alice", panel.Accounts[0].Username)
}
