// Package chat implements the client-side chat session controller: selecting a
// conversation, loading its history, sending messages, and merging realtime
// pushes into the local message list.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ugcmarket/realtime-go/internal/alerts"
	"github.com/ugcmarket/realtime-go/internal/apierr"
	"github.com/ugcmarket/realtime-go/internal/chatid"
	"github.com/ugcmarket/realtime-go/internal/dto"
	"github.com/ugcmarket/realtime-go/internal/models"
	"github.com/ugcmarket/realtime-go/internal/observability"
	"github.com/ugcmarket/realtime-go/internal/realtime"
	"github.com/ugcmarket/realtime-go/internal/rest"
	"github.com/ugcmarket/realtime-go/internal/session"
)

// transportSlot is the single connection slot for the active conversation.
// Selecting a different conversation replaces the slot's connection, which
// detaches the old handlers before the new socket opens.
const transportSlot = "chat"

// State describes the controller lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateActive
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	default:
		return "idle"
	}
}

// API covers the REST operations the controller performs.
type API interface {
	ChatHistory(ctx context.Context, chatID, token string) ([]models.Message, error)
	SendChatMessage(ctx context.Context, params rest.SendParams) (models.Message, error)
	WebsocketURL(path, token string) string
}

// Transport abstracts the realtime slot manager.
type Transport interface {
	Connect(slot, url string, handlers realtime.Handlers)
	Disconnect(slot string)
}

// Controller orchestrates one active conversation at a time.
type Controller struct {
	api       API
	transport Transport
	sessions  *session.Store
	deriver   chatid.Deriver
	codec     dto.Codec
	alerter   alerts.Sink
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer

	mu           sync.Mutex
	state        State
	messages     []models.Message
	activeChatID string
	receiverID   string
	receiverName string
	// epoch increments on every selection and clear; async results carrying an
	// older epoch are dropped instead of applied to the wrong conversation.
	epoch uint64

	unsubscribe func()
}

// NewController builds a chat controller bound to the shared session store.
// The controller clears itself whenever the authenticated identity is lost.
func NewController(api API, transport Transport, sessions *session.Store, deriver chatid.Deriver, codec dto.Codec, alerter alerts.Sink, logger zerolog.Logger) *Controller {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	c := &Controller{
		api:       api,
		transport: transport,
		sessions:  sessions,
		deriver:   deriver,
		codec:     codec,
		alerter:   alerter,
		sanitizer: sanitizer,
		logger:    logger.With().Str("component", "chat_controller").Logger(),
		tracer:    otel.Tracer("github.com/ugcmarket/realtime-go/internal/chat"),
		state:     StateIdle,
	}
	c.unsubscribe = sessions.Subscribe(c.onSessionChange)

	return c
}

// Select opens the conversation with the target participant: the message list
// is cleared immediately, the conversation id derived, the realtime slot
// reconnected, and the history fetched. A history failure leaves the
// conversation selected with an empty list and does not abort the socket.
func (c *Controller) Select(ctx context.Context, targetID, targetName string) error {
	sess := c.sessions.Current()
	if !sess.Authenticated() {
		return apierr.ErrUnauthenticated
	}

	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return apierr.ErrInvalidTarget
	}

	chatID := c.deriver.Derive(sess.User.ID, targetID)

	ctx, span := c.tracer.Start(ctx, "chat.select", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	c.mu.Lock()
	c.messages = nil
	c.activeChatID = chatID
	c.receiverID = targetID
	c.receiverName = targetName
	c.state = StateLoading
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	c.logger.Info().Str("chat_id", chatID).Str("receiver_id", targetID).Msg("conversation selected")
	c.connect(chatID, sess)

	history, err := c.api.ChatHistory(ctx, chatID, sess.AccessToken)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		// superseded by a newer selection or a clear while the fetch was in flight
		return nil
	}

	if err != nil {
		c.state = StateActive
		span.RecordError(err)
		c.logger.Warn().Err(err).Str("chat_id", chatID).Msg("failed to fetch chat history")
		return fmt.Errorf("load chat history: %w", err)
	}

	c.messages = history
	c.state = StateActive
	return nil
}

// Send posts a message to the active conversation and merges the acknowledged
// result into the local list. Blank content is a no-op. There is no optimistic
// insert: a failed send leaves the list untouched.
func (c *Controller) Send(ctx context.Context, content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	sess := c.sessions.Current()
	if !sess.Authenticated() {
		return apierr.ErrUnauthenticated
	}

	c.mu.Lock()
	chatID := c.activeChatID
	receiverID := c.receiverID
	epoch := c.epoch
	c.mu.Unlock()

	if chatID == "" || receiverID == "" {
		return apierr.ErrNoActiveConversation
	}

	clean := strings.TrimSpace(c.sanitizer.Sanitize(trimmed))
	if clean == "" {
		return fmt.Errorf("message content empty after sanitization")
	}

	ctx, span := c.tracer.Start(ctx, "chat.send", trace.WithAttributes(
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	message, err := c.api.SendChatMessage(ctx, rest.SendParams{
		ChatID:     chatID,
		SenderID:   sess.User.ID,
		ReceiverID: receiverID,
		Content:    clean,
		Token:      sess.AccessToken,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("send chat message: %w", err)
	}

	c.mu.Lock()
	if c.epoch == epoch {
		c.messages = Merge(c.messages, message)
	}
	c.mu.Unlock()

	observability.ChatMessagesSent().Inc()
	return nil
}

// Clear resets the controller to idle and disconnects the realtime slot.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.messages = nil
	c.activeChatID = ""
	c.receiverID = ""
	c.receiverName = ""
	c.state = StateIdle
	c.epoch++
	c.mu.Unlock()

	c.transport.Disconnect(transportSlot)
}

// Close detaches the controller from the session store and clears it.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.Clear()
}

// Messages returns a copy of the current conversation's message list.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// State returns the controller lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveChatID returns the derived id of the selected conversation, if any.
func (c *Controller) ActiveChatID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeChatID
}

// Receiver returns the selected participant's id and display name.
func (c *Controller) Receiver() (id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receiverID, c.receiverName
}

func (c *Controller) onSessionChange(sess *session.Session) {
	if !sess.Authenticated() {
		c.Clear()
	}
}

func (c *Controller) connect(chatID string, sess *session.Session) {
	url := c.api.WebsocketURL("/ws/chat/"+chatID, sess.AccessToken)
	localID := sess.User.ID

	c.transport.Connect(transportSlot, url, realtime.Handlers{
		OnEvent: func(envelope realtime.Envelope) {
			c.handleEvent(chatID, localID, envelope)
		},
		OnError: func(err error) {
			c.logger.Warn().Err(err).Str("chat_id", chatID).Msg("chat transport degraded")
			c.alerter.Error("Chat connection unavailable", "The chat connection is temporarily degraded.")
		},
	})
}

// handleEvent merges an inbound realtime message. Malformed frames are logged
// and dropped; a single bad frame must not disturb the stream.
func (c *Controller) handleEvent(chatID, localID string, envelope realtime.Envelope) {
	if envelope.Event != "message" {
		return
	}

	var payload dto.ChatMessagePayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("dropping undecodable chat frame")
		return
	}

	message, err := c.codec.DecodeMessage(payload)
	if err != nil {
		c.logger.Warn().Err(err).Msg("dropping invalid chat message")
		return
	}

	c.mu.Lock()
	if c.activeChatID != chatID {
		// late frame from an abandoned conversation
		c.mu.Unlock()
		return
	}
	c.messages = Merge(c.messages, message)
	receiverName := c.receiverName
	c.mu.Unlock()

	observability.ChatMessagesReceived().Inc()

	if message.SenderID != localID {
		title := "New message"
		if receiverName != "" {
			title = "New message from " + receiverName
		}
		c.alerter.Info(title, message.Content)
	}
}
