package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/relay-chat-api/internal/models"
	"github.com/noah-isme/relay-chat-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// messageRepoStub is an in-memory MessageRepository keyed by scope and
// conversation.
type messageRepoStub struct {
	mu     sync.Mutex
	store  map[string][]models.Message
	nextID uint
}

func newMessageRepoStub() *messageRepoStub {
	return &messageRepoStub{store: make(map[string][]models.Message)}
}

func (m *messageRepoStub) bucket(scope repository.MessageScope, key string) string {
	return scope.String() + "/" + key
}

func (m *messageRepoStub) Create(ctx context.Context, scope repository.MessageScope, message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	message.ID = m.nextID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	bucket := m.bucket(scope, message.ConversationKey)
	m.store[bucket] = append(m.store[bucket], *message)
	return nil
}

func (m *messageRepoStub) Window(ctx context.Context, scope repository.MessageScope, key string, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	messages := m.store[m.bucket(scope, key)]
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	out := make([]models.Message, len(messages))
	copy(out, messages)
	return out, nil
}

func (m *messageRepoStub) Count(ctx context.Context, scope repository.MessageScope, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.store[m.bucket(scope, key)])), nil
}

func (m *messageRepoStub) ClearConversation(ctx context.Context, scope repository.MessageScope, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucket(scope, key)
	deleted := int64(len(m.store[bucket]))
	delete(m.store, bucket)
	return deleted, nil
}

func (m *messageRepoStub) DeleteByAuthor(ctx context.Context, username string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for bucket, messages := range m.store {
		kept := messages[:0]
		for _, message := range messages {
			if message.Username == username {
				deleted++
				continue
			}
			kept = append(kept, message)
		}
		m.store[bucket] = kept
	}
	return deleted, nil
}

func (m *messageRepoStub) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for bucket, messages := range m.store {
		kept := messages[:0]
		for _, message := range messages {
			if message.CreatedAt.Before(cutoff) {
				deleted++
				continue
			}
			kept = append(kept, message)
		}
		m.store[bucket] = kept
	}
	return deleted, nil
}

func (m *messageRepoStub) ClearAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for _, messages := range m.store {
		deleted += int64(len(messages))
	}
	m.store = make(map[string][]models.Message)
	return deleted, nil
}

// accountRepoStub is an in-memory AccountRepository.
type accountRepoStub struct {
	mu       sync.Mutex
	accounts map[string]models.Account
}

func newAccountRepoStub() *accountRepoStub {
	return &accountRepoStub{accounts: make(map[string]models.Account)}
}

func (a *accountRepoStub) Create(ctx context.Context, account *models.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	a.accounts[account.Username] = *account
	return nil
}

func (a *accountRepoStub) GetByUsername(ctx context.Context, username string) (models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	account, ok := a.accounts[username]
	if !ok {
		return models.Account{}, gorm.ErrRecordNotFound
	}
	return account, nil
}

func (a *accountRepoStub) SetOnline(ctx context.Context, username string, online bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	account, ok := a.accounts[username]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	account.Online = online
	account.LastSeen = time.Now().UTC()
	a.accounts[username] = account
	return nil
}

func (a *accountRepoStub) SetModerator(ctx context.Context, username string, moderator bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	account, ok := a.accounts[username]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	account.IsModerator = moderator
	a.accounts[username] = account
	return nil
}

func (a *accountRepoStub) Delete(ctx context.Context, username string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.accounts, username)
	return nil
}

func (a *accountRepoStub) ListOnline(ctx context.Context, excluding string) ([]models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Account
	for _, account := range a.accounts {
		if account.Online && account.Username != excluding {
			out = append(out, account)
		}
	}
	return out, nil
}

func (a *accountRepoStub) ListAll(ctx context.Context, excluding string) ([]models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Account
	for _, account := range a.accounts {
		if account.Username != excluding {
			out = append(out, account)
		}
	}
	return out, nil
}

// moderationRepoStub holds a single in-memory moderation config.
type moderationRepoStub struct {
	mu  sync.Mutex
	cfg models.ModerationConfig
}

func (m *moderationRepoStub) Get(ctx context.Context) (models.ModerationConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg, nil
}

func (m *moderationRepoStub) Save(ctx context.Context, config *models.ModerationConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = *config
	return nil
}

// roomRepoStub is an in-memory RoomRepository.
type roomRepoStub struct {
	mu    sync.Mutex
	rooms map[string]models.Room
}

func newRoomRepoStub() *roomRepoStub {
	return &roomRepoStub{rooms: make(map[string]models.Room)}
}

func (r *roomRepoStub) EnsureGeneral(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[models.GeneralRoomID]; !ok {
		r.rooms[models.GeneralRoomID] = models.Room{ID: models.GeneralRoomID, Name: models.GeneralRoomID, Type: models.RoomTypePublic}
	}
	return nil
}

func (r *roomRepoStub) Create(ctx context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	r.rooms[room.ID] = *room
	return nil
}

func (r *roomRepoStub) Get(ctx context.Context, id string) (models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return models.Room{}, gorm.ErrRecordNotFound
	}
	return room, nil
}

func (r *roomRepoStub) List(ctx context.Context) ([]models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Room
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (r *roomRepoStub) DeleteWithMessages(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
	return nil
}

// streamStub records broadcast calls.
type streamStub struct {
	mu         sync.Mutex
	broadcasts []string
	allCount   int
}

func (s *streamStub) Subscribe(ctx context.Context, scope repository.MessageScope, conversation string) *StreamHandle {
	return nil
}

func (s *streamStub) Broadcast(ctx context.Context, scope repository.MessageScope, conversation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcasts = append(s.broadcasts, scope.String()+"/"+conversation)
}

func (s *streamStub) BroadcastAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allCount++
}

func (s *streamStub) Start(ctx context.Context) {}
