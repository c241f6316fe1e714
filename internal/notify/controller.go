// Package notify implements the client-side notification stream: the initial
// REST fetch, incremental push-driven upserts, read acknowledgements, and the
// identity-bound realtime connection.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ugcmarket/realtime-go/internal/alerts"
	"github.com/ugcmarket/realtime-go/internal/apierr"
	"github.com/ugcmarket/realtime-go/internal/dto"
	"github.com/ugcmarket/realtime-go/internal/models"
	"github.com/ugcmarket/realtime-go/internal/observability"
	"github.com/ugcmarket/realtime-go/internal/realtime"
	"github.com/ugcmarket/realtime-go/internal/session"
)

// transportSlot is the single connection slot for the notification stream.
const transportSlot = "notifications"

// API covers the REST operations the controller performs.
type API interface {
	Notifications(ctx context.Context, token string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, token string) error
	WebsocketURL(path, token string) string
}

// Transport abstracts the realtime slot manager.
type Transport interface {
	Connect(slot, url string, handlers realtime.Handlers)
	Disconnect(slot string)
}

// Controller owns the authenticated user's notification list.
type Controller struct {
	api            API
	transport      Transport
	sessions       *session.Store
	codec          dto.Codec
	alerter        alerts.Sink
	onUnauthorized func()
	logger         zerolog.Logger
	tracer         trace.Tracer

	mu          sync.Mutex
	items       []models.Notification
	loading     bool
	boundUserID string

	unsubscribe func()
}

// NewController builds a notification controller and binds it to the current
// session: the realtime connection follows the authenticated identity,
// reconnecting only when the user id actually changes. onUnauthorized is the
// injected recovery side-effect for rejected credentials (typically a forced
// logout); it may be nil.
func NewController(api API, transport Transport, sessions *session.Store, codec dto.Codec, alerter alerts.Sink, onUnauthorized func(), logger zerolog.Logger) *Controller {
	c := &Controller{
		api:            api,
		transport:      transport,
		sessions:       sessions,
		codec:          codec,
		alerter:        alerter,
		onUnauthorized: onUnauthorized,
		logger:         logger.With().Str("component", "notification_controller").Logger(),
		tracer:         otel.Tracer("github.com/ugcmarket/realtime-go/internal/notify"),
	}
	c.unsubscribe = sessions.Subscribe(c.bindSession)
	c.bindSession(sessions.Current())

	return c
}

// Refresh replaces the local list with the server's current state. It returns
// immediately when unauthenticated. Results arriving after the identity has
// changed are discarded.
func (c *Controller) Refresh(ctx context.Context) error {
	sess := c.sessions.Current()
	if !sess.Authenticated() {
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "notifications.refresh")
	defer span.End()

	c.setLoading(true)
	defer c.setLoading(false)

	items, err := c.api.Notifications(ctx, sess.AccessToken)
	if err != nil {
		span.RecordError(err)
		if apierr.IsUnauthorized(err) {
			c.unauthorized()
			return err
		}
		c.alerter.Error("Failed to load notifications", err.Error())
		return fmt.Errorf("fetch notifications: %w", err)
	}

	current := c.sessions.Current()
	if !current.Authenticated() || current.User.ID != sess.User.ID {
		return nil
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	return nil
}

// MarkRead acknowledges the given ids, one request per id, and flips the read
// flag locally only for the ids the server accepted. A rejected credential
// fires the unauthorized side-effect once for the whole batch, with no
// additional user-facing alert for that condition.
func (c *Controller) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	sess := c.sessions.Current()
	if !sess.Authenticated() {
		return apierr.ErrUnauthenticated
	}

	ctx, span := c.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.Int("notifications.count", len(ids)),
	))
	defer span.End()

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = c.api.MarkNotificationRead(ctx, id, sess.AccessToken)
		}(i, id)
	}
	wg.Wait()

	succeeded := make(map[string]struct{}, len(ids))
	unauthorized := false
	var firstErr error
	for i, err := range errs {
		if err == nil {
			succeeded[ids[i]] = struct{}{}
			continue
		}
		if apierr.IsUnauthorized(err) {
			unauthorized = true
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	if len(succeeded) > 0 {
		c.mu.Lock()
		for i := range c.items {
			if _, ok := succeeded[c.items[i].ID]; ok {
				c.items[i].IsRead = true
			}
		}
		c.mu.Unlock()
	}

	if firstErr == nil {
		return nil
	}

	span.RecordError(firstErr)
	if unauthorized {
		c.unauthorized()
		return firstErr
	}

	c.alerter.Error("Failed to update notifications", firstErr.Error())
	return fmt.Errorf("mark notifications read: %w", firstErr)
}

// Push upserts a notification by id: an existing entry is updated in place, a
// new one is prepended. Unless silent, a category-specific alert is raised.
func (c *Controller) Push(notification models.Notification, silent bool) {
	c.mu.Lock()
	replaced := false
	for i := range c.items {
		if c.items[i].ID == notification.ID {
			c.items[i] = notification
			replaced = true
			break
		}
	}
	if !replaced {
		c.items = append([]models.Notification{notification}, c.items...)
	}
	c.mu.Unlock()

	observability.NotificationsReceived().WithLabelValues(categoryLabel(notification.Type)).Inc()

	if silent {
		return
	}
	c.alert(notification)
}

// Items returns a copy of the notification list, newest arrivals first.
func (c *Controller) Items() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// UnreadCount is derived on every read; it is never stored.
func (c *Controller) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, item := range c.items {
		if !item.IsRead {
			count++
		}
	}
	return count
}

// Loading reports whether a refresh is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Close detaches the controller from the session store and closes its slot.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.transport.Disconnect(transportSlot)
}

// bindSession follows the authenticated identity: logout closes the stream and
// drops local state, a changed user id reconnects, the same user id is left
// alone.
func (c *Controller) bindSession(sess *session.Session) {
	c.mu.Lock()
	if !sess.Authenticated() {
		wasBound := c.boundUserID != ""
		c.boundUserID = ""
		c.items = nil
		c.mu.Unlock()

		if wasBound {
			c.transport.Disconnect(transportSlot)
		}
		return
	}

	if c.boundUserID == sess.User.ID {
		c.mu.Unlock()
		return
	}
	c.boundUserID = sess.User.ID
	c.mu.Unlock()

	url := c.api.WebsocketURL("/ws/notifications/"+sess.User.ID, sess.AccessToken)
	c.logger.Info().Str("user_id", sess.User.ID).Msg("binding notification stream")

	c.transport.Connect(transportSlot, url, realtime.Handlers{
		OnEvent: c.handleEvent,
		OnError: func(err error) {
			c.logger.Warn().Err(err).Msg("notification transport degraded")
			c.alerter.Error("Notification connection unavailable", "The notification connection is temporarily degraded.")
		},
	})
}

func (c *Controller) handleEvent(envelope realtime.Envelope) {
	if envelope.Event != "notification" {
		return
	}

	var payload dto.NotificationPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("dropping undecodable notification frame")
		return
	}

	notification, err := c.codec.DecodeNotification(payload)
	if err != nil {
		c.logger.Warn().Err(err).Msg("dropping invalid notification")
		return
	}

	c.Push(notification, false)
}

func (c *Controller) alert(notification models.Notification) {
	title := notification.Title
	if title == "" {
		title = "New notification"
	}

	switch notification.Type {
	case models.NotificationPaymentSuccess:
		c.alerter.Success(title, notification.Content)
	case models.NotificationAdminNotice:
		c.alerter.Info(title, notification.Content)
	case models.NotificationChatMessage:
		body := notification.Content
		if body == "" {
			body = "New message"
		}
		c.alerter.Info(title, body)
	default:
		c.alerter.Info(title, notification.Content)
	}
}

func (c *Controller) unauthorized() {
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Controller) setLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
}

// categoryLabel keeps metric cardinality bounded for unknown categories.
func categoryLabel(category string) string {
	switch category {
	case models.NotificationPaymentSuccess, models.NotificationAdminNotice, models.NotificationChatMessage:
		return category
	default:
		return "other"
	}
}
