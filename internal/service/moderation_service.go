package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/models"
	"github.com/noah-isme/relay-chat-api/internal/repository"
)

var (
	// ErrNotModerator indicates the caller lacks the moderator flag.
	ErrNotModerator = errors.New("moderator privileges required")
	// ErrSelfTarget indicates a moderator targeted their own account.
	ErrSelfTarget = errors.New("cannot apply this action to your own account")
	// ErrReservedRoom indicates an attempt to delete the default room.
	ErrReservedRoom = errors.New("the general room cannot be deleted")
	// ErrBadConfirmation indicates the typed confirmation phrase was wrong.
	ErrBadConfirmation = errors.New("confirmation phrase does not match")
)

// ModerationService exposes every moderator operation. The caller's moderator
// flag is re-validated against the store on every call; tokens are not
// trusted for destructive actions.
type ModerationService interface {
	ToggleBan(ctx context.Context, actor, username string) (models.ModerationConfig, error)
	AddFilterWord(ctx context.Context, actor, word string) (models.ModerationConfig, error)
	RemoveFilterWord(ctx context.Context, actor, word string) (models.ModerationConfig, error)
	ToggleModerator(ctx context.Context, actor, username string) (bool, error)
	DeleteAccount(ctx context.Context, actor, username string) error
	DeleteRoom(ctx context.Context, actor, roomID string) error
	ClearConversation(ctx context.Context, actor string, req dto.ClearConversationRequest) (int64, error)
	ClearAll(ctx context.Context, actor, confirm string) (int64, error)
	Panel(ctx context.Context, actor string) (dto.ModerationPanelResponse, error)
	Config(ctx context.Context) (models.ModerationConfig, error)
}

type moderationService struct {
	accounts   repository.AccountRepository
	rooms      repository.RoomRepository
	messages   repository.MessageRepository
	moderation repository.ModerationRepository
	streams    StreamService
	logger     zerolog.Logger
}

// NewModerationService creates the moderation service.
func NewModerationService(accounts repository.AccountRepository, rooms repository.RoomRepository, messages repository.MessageRepository, moderation repository.ModerationRepository, streams StreamService, logger zerolog.Logger) ModerationService {
	return &moderationService{
		accounts:   accounts,
		rooms:      rooms,
		messages:   messages,
		moderation: moderation,
		streams:    streams,
		logger:     logger.With().Str("component", "moderation_service").Logger(),
	}
}

func (s *moderationService) requireModerator(ctx context.Context, actor string) error {
	account, err := s.accounts.GetByUsername(ctx, actor)
	if err != nil {
		return ErrNotModerator
	}
	if !account.IsModerator {
		return ErrNotModerator
	}
	return nil
}

func (s *moderationService) ToggleBan(ctx context.Context, actor, username string) (models.ModerationConfig, error) {
	if err := s.requireModerator(ctx, actor); err != nil {
		return models.ModerationConfig{}, err
	}

	config, err := s.moderation.Get(ctx)
	if err != nil {
		return models.ModerationConfig{}, err
	}

	config.ToggleBan(username)
	if err := s.moderation.Save(ctx, &config); err != nil {
		return models.ModerationConfig{}, err
	}

	s.logger.Info().Str("actor", actor).Str("username", username).Msg("ban toggled")
	return config, nil
}

func (s *moderationService) AddFilterWord(ctx context.Context, actor, word string) (models.ModerationConfig, error) {
	if err := s.requireModerator(ctx, actor); err != nil {
		return models.ModerationConfig{}, err
	}

	config, err := s.moderation.Get(ctx)
	if err != nil {
		return models.ModerationConfig{}, err
	}

	if config.AddFilterWord(word) {
		if err := s.moderation.Save(ctx, &config); err != nil {
			return models.ModerationConfig{}, err
		}
	}
	return config, nil
}

func (s *moderationService) RemoveFilterWord(ctx context.Context, actor, word string) (models.ModerationConfig, error) {
	if err := s.requireModerator(ctx, actor); err != nil {
		return models.ModerationConfig{}, err
	}

	config, err := s.moderation.Get(ctx)
	if err != nil {
		return models.ModerationConfig{}, err
	}

	if config.RemoveFilterWord(word) {
		if err := s.moderation.Save(ctx, &config); err != nil {
			return models.ModerationConfig{}, err
		}
	}
	return config, nil
}

// ToggleModerator flips another account's moderator flag and returns the new
// value.
func (s *moderationService) ToggleModerator(ctx context.Context, actor, username string) (bool, error) {
	if err := s.requireModerator(ctx, actor); err != nil {
		return false, err
	}
	if actor == username {
		return false, ErrSelfTarget
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	next := !account.IsModerator
	if err := s.accounts.SetModerator(ctx, username, next); err != nil {
		return false, err
	}

	s.logger.Info().Str("actor", actor).Str("username", username).Bool("moderator", next).Msg("moderator flag toggled")
	return next, nil
}

// DeleteAccount removes the account and every message it authored in both
// collections. The deleted account can no longer authenticate.
func (s *moderationService) DeleteAccount(ctx context.Context, actor, username string) error {
	if err := s.requireModerator(ctx, actor); err != nil {
		return err
	}
	if actor == username {
		return ErrSelfTarget
	}

	if _, err := s.accounts.GetByUsername(ctx, username); err != nil {
		return err
	}

	if err := s.accounts.Delete(ctx, username); err != nil {
		return err
	}

	deleted, err := s.messages.DeleteByAuthor(ctx, username)
	if err != nil {
		return err
	}

	s.logger.Info().Str("actor", actor).Str("username", username).Int64("messages_deleted", deleted).Msg("account deleted")
	s.streams.BroadcastAll(ctx)
	return nil
}

// DeleteRoom removes a room and its messages. The general room is reserved.
func (s *moderationService) DeleteRoom(ctx context.Context, actor, roomID string) error {
	if err := s.requireModerator(ctx, actor); err != nil {
		return err
	}
	if roomID == models.GeneralRoomID {
		return ErrReservedRoom
	}

	if _, err := s.rooms.Get(ctx, roomID); err != nil {
		return err
	}

	if err := s.rooms.DeleteWithMessages(ctx, roomID); err != nil {
		return err
	}

	s.logger.Info().Str("actor", actor).Str("room_id", roomID).Msg("room deleted")
	s.streams.Broadcast(ctx, repository.RoomMessages, roomID)
	return nil
}

func (s *moderationService) ClearConversation(ctx context.Context, actor string, req dto.ClearConversationRequest) (int64, error) {
	if err := s.requireModerator(ctx, actor); err != nil {
		return 0, err
	}

	scope := repository.RoomMessages
	key := req.RoomID
	if req.Peer != "" {
		scope = repository.DirectMessages
		key = models.DirectKey(actor, req.Peer)
	}
	if key == "" {
		key = models.GeneralRoomID
	}

	deleted, err := s.messages.ClearConversation(ctx, scope, key)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Str("actor", actor).Str("conversation", key).Int64("deleted", deleted).Msg("conversation cleared")
	s.streams.Broadcast(ctx, scope, key)
	return deleted, nil
}

// ClearAll wipes both message collections. The confirmation phrase is a UX
// safeguard, not a transactional one; it is still checked server-side.
func (s *moderationService) ClearAll(ctx context.Context, actor, confirm string) (int64, error) {
	if err := s.requireModerator(ctx, actor); err != nil {
		return 0, err
	}
	if confirm != dto.ClearAllConfirmPhrase {
		return 0, ErrBadConfirmation
	}

	deleted, err := s.messages.ClearAll(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Str("actor", actor).Int64("deleted", deleted).Msg("all conversations cleared")
	s.streams.BroadcastAll(ctx)
	return deleted, nil
}

func (s *moderationService) Panel(ctx context.Context, actor string) (dto.ModerationPanelResponse, error) {
	if err := s.requireModerator(ctx, actor); err != nil {
		return dto.ModerationPanelResponse{}, err
	}

	config, err := s.moderation.Get(ctx)
	if err != nil {
		return dto.ModerationPanelResponse{}, err
	}

	accounts, err := s.accounts.ListAll(ctx, actor)
	if err != nil {
		return dto.ModerationPanelResponse{}, err
	}

	return dto.ModerationPanelResponse{
		BannedUsers:   config.BannedUsers,
		FilteredWords: config.FilteredWords,
		Accounts:      dto.NewAccountSummarySlice(accounts),
	}, nil
}

func (s *moderationService) Config(ctx context.Context) (models.ModerationConfig, error) {
	return s.moderation.Get(ctx)
}
