package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/observability"
	"github.com/noah-isme/relay-chat-api/internal/repository"
)

const streamSendBufferSize = 8

// Snapshot is a full delivery of the current window of one conversation.
// Every delivery replaces the previous one wholesale; deliveries are never
// incremental patches, so out-of-order arrival is harmless.
type Snapshot struct {
	Conversation string
	Messages     []dto.MessageResponse
}

// StreamHandle is a cancellable subscription to one conversation's snapshots.
type StreamHandle struct {
	scope        repository.MessageScope
	conversation string
	snapshots    chan Snapshot
	service      *streamService

	mu     sync.Mutex
	closed bool
}

// Snapshots returns the delivery channel. It is closed by Cancel.
func (h *StreamHandle) Snapshots() <-chan Snapshot {
	return h.snapshots
}

// Cancel releases the subscription and closes the delivery channel. Safe to
// call more than once.
func (h *StreamHandle) Cancel() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.snapshots)
	h.mu.Unlock()

	h.service.unregister(h)
}

// streamEvent is the change notification exchanged between nodes.
type streamEvent struct {
	Source       string    `json:"source"`
	Scope        string    `json:"scope,omitempty"`
	Conversation string    `json:"conversation,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// StreamService owns conversation subscriptions and snapshot fan-out. Change
// notifications re-query the store and push the resulting window to every
// subscriber of the affected conversation.
type StreamService interface {
	Subscribe(ctx context.Context, scope repository.MessageScope, conversation string) *StreamHandle
	// Broadcast notifies local subscribers of a change and publishes the
	// event for peer nodes.
	Broadcast(ctx context.Context, scope repository.MessageScope, conversation string)
	// BroadcastAll refreshes every active subscription, for bulk deletes
	// that cut across conversations.
	BroadcastAll(ctx context.Context)
	Start(ctx context.Context)
}

type streamEntry struct {
	scope   repository.MessageScope
	handles map[*StreamHandle]struct{}
}

type streamService struct {
	repo         repository.MessageRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	window       int
	nodeID       string

	mu      sync.RWMutex
	entries map[string]*streamEntry
}

// NewStreamService creates the subscription manager.
func NewStreamService(repo repository.MessageRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, window int, logger zerolog.Logger) StreamService {
	if window <= 0 {
		window = 50
	}

	redisChannel := ""
	natsSubject := ""
	if channelBase != "" {
		redisChannel = channelBase + ":stream"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".stream"
	}

	return &streamService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		logger:       logger.With().Str("component", "stream_service").Logger(),
		window:       window,
		nodeID:       uuid.NewString(),
		entries:      make(map[string]*streamEntry),
	}
}

func (s *streamService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// Subscribe registers a handle and delivers the initial snapshot. A failed
// initial query is logged and skipped; the handle stays live and the next
// change notification retries the read.
func (s *streamService) Subscribe(ctx context.Context, scope repository.MessageScope, conversation string) *StreamHandle {
	handle := &StreamHandle{
		scope:        scope,
		conversation: conversation,
		snapshots:    make(chan Snapshot, streamSendBufferSize),
		service:      s,
	}

	s.mu.Lock()
	entry, ok := s.entries[conversation]
	if !ok {
		entry = &streamEntry{scope: scope, handles: make(map[*StreamHandle]struct{})}
		s.entries[conversation] = entry
	}
	entry.handles[handle] = struct{}{}
	s.mu.Unlock()

	if snapshot, err := s.buildSnapshot(ctx, scope, conversation); err == nil {
		handle.deliver(s.logger, snapshot)
	} else {
		s.logger.Error().Err(err).Str("conversation", conversation).Msg("initial snapshot query failed")
		observability.StreamSnapshots().WithLabelValues("error").Inc()
	}

	return handle
}

func (s *streamService) unregister(handle *StreamHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[handle.conversation]; ok {
		delete(entry.handles, handle)
		if len(entry.handles) == 0 {
			delete(s.entries, handle.conversation)
		}
	}
}

func (s *streamService) Broadcast(ctx context.Context, scope repository.MessageScope, conversation string) {
	s.notify(ctx, scope, conversation)
	s.publish(ctx, streamEvent{
		Source:       s.nodeID,
		Scope:        scope.String(),
		Conversation: conversation,
		SentAt:       time.Now().UTC(),
	})
}

func (s *streamService) BroadcastAll(ctx context.Context) {
	s.notifyAll(ctx)
	s.publish(ctx, streamEvent{Source: s.nodeID, SentAt: time.Now().UTC()})
}

// notify re-queries the conversation window and fans the fresh snapshot out
// to every subscriber. A query failure leaves subscribers on their last-good
// snapshot.
func (s *streamService) notify(ctx context.Context, scope repository.MessageScope, conversation string) {
	s.mu.RLock()
	entry, ok := s.entries[conversation]
	var handles []*StreamHandle
	if ok {
		handles = make([]*StreamHandle, 0, len(entry.handles))
		for handle := range entry.handles {
			handles = append(handles, handle)
		}
	}
	s.mu.RUnlock()

	if len(handles) == 0 {
		return
	}

	snapshot, err := s.buildSnapshot(ctx, scope, conversation)
	if err != nil {
		s.logger.Error().Err(err).Str("conversation", conversation).Msg("snapshot query failed, keeping last delivered state")
		observability.StreamSnapshots().WithLabelValues("error").Inc()
		return
	}

	for _, handle := range handles {
		handle.deliver(s.logger, snapshot)
	}
}

func (s *streamService) notifyAll(ctx context.Context) {
	type target struct {
		scope        repository.MessageScope
		conversation string
	}

	s.mu.RLock()
	targets := make([]target, 0, len(s.entries))
	for conversation, entry := range s.entries {
		targets = append(targets, target{scope: entry.scope, conversation: conversation})
	}
	s.mu.RUnlock()

	for _, t := range targets {
		s.notify(ctx, t.scope, t.conversation)
	}
}

func (s *streamService) buildSnapshot(ctx context.Context, scope repository.MessageScope, conversation string) (Snapshot, error) {
	messages, err := s.repo.Window(ctx, scope, conversation, s.window)
	if err != nil {
		return Snapshot{}, err
	}
	observability.StreamSnapshots().WithLabelValues("ok").Inc()
	return Snapshot{Conversation: conversation, Messages: dto.NewMessageResponseSlice(messages)}, nil
}

func (h *StreamHandle) deliver(logger zerolog.Logger, snapshot Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	select {
	case h.snapshots <- snapshot:
	default:
		logger.Warn().Str("conversation", h.conversation).Msg("dropping snapshot for slow subscriber")
	}
}

func (s *streamService) publish(ctx context.Context, event streamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal stream event")
		return
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish stream event to redis")
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish stream event to nats")
		}
	}
}

func (s *streamService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("stream redis subscription closed")
			return
		}
		s.handleEvent(ctx, []byte(msg.Payload))
	}
}

func (s *streamService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "relay-stream", func(msg *nats.Msg) {
		s.handleEvent(ctx, msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats stream subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain stream nats subscription")
		}
	}()
}

func (s *streamService) handleEvent(ctx context.Context, data []byte) {
	var event streamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid stream event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	if event.Conversation == "" {
		s.notifyAll(ctx)
		return
	}

	scope, ok := repository.ScopeFromName(event.Scope)
	if !ok {
		s.logger.Warn().Str("scope", event.Scope).Msg("stream event with unknown scope")
		return
	}
	s.notify(ctx, scope, event.Conversation)
}

// active reports the number of live handles for a conversation.
func (s *streamService) active(conversation string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[conversation]
	if !ok {
		return 0
	}
	return len(entry.handles)
}

// activeTotal reports the number of live handles across all conversations.
func (s *streamService) activeTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, entry := range s.entries {
		total += len(entry.handles)
	}
	return total
}
