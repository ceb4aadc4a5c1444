package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/relay-chat-api/internal/dto"
	"github.com/noah-isme/relay-chat-api/internal/models"
	"github.com/noah-isme/relay-chat-api/internal/observability"
	"github.com/noah-isme/relay-chat-api/internal/repository"
	"github.com/noah-isme/relay-chat-api/internal/session"
)

const chatSendBufferSize = 32

var (
	// ErrBanned indicates the sender is in the banned set.
	ErrBanned = errors.New("sender is banned from chatting")
	// ErrEmptyMessage indicates the message had neither body nor attachment.
	ErrEmptyMessage = errors.New("message requires a body or an attachment")
)

// ChatConnectionOptions wraps identity extracted during the HTTP upgrade.
type ChatConnectionOptions struct {
	Username      string
	Moderator     bool
	CorrelationID string
	Context       context.Context
}

// ChatService manages websocket chat sessions and the message send path.
type ChatService interface {
	ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions)
	Send(ctx context.Context, sender string, req dto.SendMessageRequest) (dto.MessageResponse, error)
	History(ctx context.Context, caller string, query dto.HistoryQuery) ([]dto.MessageResponse, error)
}

type chatService struct {
	messages   repository.MessageRepository
	moderation repository.ModerationRepository
	streams    StreamService
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	tracer     trace.Tracer
	historyCap int
}

// NewChatService creates the chat service.
func NewChatService(messages repository.MessageRepository, moderation repository.ModerationRepository, streams StreamService, validate *validator.Validate, historyCap int, logger zerolog.Logger) ChatService {
	if historyCap <= 0 {
		historyCap = 50
	}

	return &chatService{
		messages:   messages,
		moderation: moderation,
		streams:    streams,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "chat_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/relay-chat-api/internal/service/chat"),
		historyCap: historyCap,
	}
}

// Send runs the full send path: moderation gate, bounded-history reset,
// insert, change broadcast. The count check and the clear are deliberately
// not atomic against concurrent senders; a double clear is a harmless no-op.
func (s *chatService) Send(ctx context.Context, sender string, req dto.SendMessageRequest) (dto.MessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.MessageResponse{}, err
	}

	scope, key := s.target(sender, req)

	body := strings.TrimSpace(s.sanitizer.Sanitize(req.Body))
	if body == "" && req.AttachmentURL == "" {
		return dto.MessageResponse{}, ErrEmptyMessage
	}

	kind := models.MessageKindText
	if req.AttachmentURL != "" {
		kind = models.MessageKindImage
	}

	ctx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.String("chat.conversation", key),
		attribute.String("chat.sender", sender),
		attribute.String("chat.kind", kind),
	))
	defer span.End()

	config, err := s.moderation.Get(ctx)
	if err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, err
	}

	if config.IsBanned(sender) {
		return dto.MessageResponse{}, ErrBanned
	}

	body = maskFiltered(body, config.FilteredWords)

	count, err := s.messages.Count(ctx, scope, key)
	if err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, err
	}

	if count >= int64(s.historyCap) {
		// Hard reset: the new message becomes the sole survivor.
		cleared, err := s.messages.ClearConversation(ctx, scope, key)
		if err != nil {
			span.RecordError(err)
			return dto.MessageResponse{}, err
		}
		s.logger.Info().Str("conversation", key).Int64("cleared", cleared).Msg("conversation hit history cap, cleared")
		observability.ConversationResets().Inc()
	}

	message := models.Message{
		ConversationKey: key,
		Username:        sender,
		Body:            body,
		AttachmentURL:   req.AttachmentURL,
		Kind:            kind,
	}

	if err := s.messages.Create(ctx, scope, &message); err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, err
	}

	s.streams.Broadcast(ctx, scope, key)
	observability.MessagesSent().WithLabelValues(kind).Inc()

	return dto.NewMessageResponse(message), nil
}

func (s *chatService) History(ctx context.Context, caller string, query dto.HistoryQuery) ([]dto.MessageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	scope := repository.RoomMessages
	key := query.RoomID
	if query.Peer != "" {
		scope = repository.DirectMessages
		key = models.DirectKey(caller, query.Peer)
	}
	if key == "" {
		key = models.GeneralRoomID
	}

	messages, err := s.messages.Window(ctx, scope, key, query.Limit)
	if err != nil {
		return nil, err
	}

	return dto.NewMessageResponseSlice(messages), nil
}

func (s *chatService) target(sender string, req dto.SendMessageRequest) (repository.MessageScope, string) {
	if req.To != "" {
		return repository.DirectMessages, models.DirectKey(sender, req.To)
	}
	roomID := req.RoomID
	if roomID == "" {
		roomID = models.GeneralRoomID
	}
	return repository.RoomMessages, roomID
}

// maskFiltered replaces every case-insensitive occurrence of each filtered
// word with one mask character per matched rune. Matching runs over the
// original text, never a lowered copy: case folding changes byte lengths for
// some runes, and byte offsets computed on a folded copy would split runes in
// the original. Applied once at send time; stored messages are not revisited
// when the filter list changes.
func maskFiltered(text string, words []string) string {
	for _, word := range words {
		if word == "" {
			continue
		}
		pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(word))
		text = pattern.ReplaceAllStringFunc(text, func(match string) string {
			return strings.Repeat("*", utf8.RuneCountInString(match))
		})
	}
	return text
}

// chatClient is one connected websocket session. It owns the view state and
// at most one live stream handle, replaced cancel-then-acquire on switches.
type chatClient struct {
	conn    *websocket.Conn
	view    *session.View
	send    chan dto.ServerFrame
	service *chatService
	closed  chan struct{}
	once    sync.Once
	baseCtx context.Context

	// streamMu guards stream: resubscribe runs on the reader goroutine while
	// close can run from the writer's defer.
	streamMu sync.Mutex
	stream   *StreamHandle
}

func (s *chatService) ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &chatClient{
		conn:    conn,
		view:    session.New(opts.Username, opts.Moderator),
		send:    make(chan dto.ServerFrame, chatSendBufferSize),
		service: s,
		closed:  make(chan struct{}),
		baseCtx: baseCtx,
	}

	observability.ChatConnections().Inc()

	// Sessions start in the default room, mirroring the login flow.
	client.resubscribe()

	go client.writer()
	client.reader()
}

func (c *chatClient) reader() {
	defer c.close()

	for {
		var frame dto.ClientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			c.service.logger.Debug().Err(err).Msg("chat read loop ended")
			return
		}

		if err := c.service.validator.Struct(frame); err != nil {
			c.pushError(err.Error())
			continue
		}

		switch frame.Action {
		case dto.FrameSelectRoom:
			roomID := strings.TrimSpace(frame.RoomID)
			if roomID == "" {
				roomID = models.GeneralRoomID
			}
			c.view.SelectRoom(roomID)
			c.resubscribe()
		case dto.FrameSelectDM:
			peer := strings.TrimSpace(frame.Peer)
			if peer == "" {
				c.pushError("peer required")
				continue
			}
			c.view.SelectDM(peer)
			c.resubscribe()
		case dto.FrameTogglePanel:
			c.view.TogglePanel()
		case dto.FrameSend:
			c.handleSend(frame)
		}
	}
}

func (c *chatClient) handleSend(frame dto.ClientFrame) {
	req := dto.SendMessageRequest{
		Body:          frame.Body,
		AttachmentURL: frame.AttachmentURL,
	}
	if peer, ok := c.view.DMPeer(); ok {
		req.To = peer
	} else if room, ok := c.view.Room(); ok {
		req.RoomID = room
	}

	if _, err := c.service.Send(c.baseCtx, c.view.Username(), req); err != nil {
		c.service.logger.Warn().Err(err).Str("username", c.view.Username()).Msg("failed to send chat message")
		c.pushError(err.Error())
	}
}

// resubscribe enforces the single-subscription invariant: the previous handle
// is cancelled before the next one is acquired, never both live. A session
// torn down mid-switch must not leave the fresh handle registered, so no new
// handle is acquired once close has run.
func (c *chatClient) resubscribe() {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()

	if c.stream != nil {
		c.stream.Cancel()
		c.stream = nil
	}

	select {
	case <-c.closed:
		return
	default:
	}

	key, direct := c.view.Conversation()
	scope := repository.RoomMessages
	if direct {
		scope = repository.DirectMessages
	}

	handle := c.service.streams.Subscribe(c.baseCtx, scope, key)
	c.stream = handle
	go c.forward(handle)
}

// forward copies one handle's snapshots into the session's write queue. It
// exits when the handle is cancelled.
func (c *chatClient) forward(handle *StreamHandle) {
	for snapshot := range handle.Snapshots() {
		frame := dto.ServerFrame{
			Type:         dto.FrameSnapshot,
			Conversation: snapshot.Conversation,
			Messages:     snapshot.Messages,
		}
		select {
		case c.send <- frame:
		case <-c.closed:
			return
		}
	}
}

func (c *chatClient) pushError(message string) {
	select {
	case c.send <- dto.ServerFrame{Type: dto.FrameError, Error: message}:
	default:
		c.service.logger.Warn().Msg("sender queue full, dropping error frame")
	}
}

func (c *chatClient) writer() {
	defer c.close()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *chatClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.streamMu.Lock()
		if c.stream != nil {
			c.stream.Cancel()
			c.stream = nil
		}
		c.streamMu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
