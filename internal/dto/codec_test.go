package dto

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/ugcmarket/realtime-go/internal/apierr"
)

func newCodec() Codec {
	return NewCodec(validator.New(validator.WithRequiredStructEnabled()))
}

func validMessage() ChatMessagePayload {
	return ChatMessagePayload{
		ID:         "m1",
		ChatID:     "chat-1",
		SenderID:   "user-A",
		ReceiverID: "user-B",
		Content:    "hello",
		IsRead:     false,
		Timestamp:  "2025-03-01T12:00:00Z",
	}
}

func TestDecodeMessageMapsFields(t *testing.T) {
	message, err := newCodec().DecodeMessage(validMessage())
	require.NoError(t, err)

	require.Equal(t, "m1", message.ID)
	require.Equal(t, "chat-1", message.ChatID)
	require.Equal(t, "user-A", message.SenderID)
	require.Equal(t, "user-B", message.ReceiverID)
	require.Equal(t, "hello", message.Content)
	require.False(t, message.IsRead)
	require.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), message.Timestamp.UTC())
}

func TestDecodeMessageRejectsMissingRequiredFields(t *testing.T) {
	codec := newCodec()

	mutations := map[string]func(*ChatMessagePayload){
		"ID":        func(p *ChatMessagePayload) { p.ID = "" },
		"ChatID":    func(p *ChatMessagePayload) { p.ChatID = "" },
		"SenderID":  func(p *ChatMessagePayload) { p.SenderID = "" },
		"Content":   func(p *ChatMessagePayload) { p.Content = "" },
		"Timestamp": func(p *ChatMessagePayload) { p.Timestamp = "" },
	}

	for field, mutate := range mutations {
		payload := validMessage()
		mutate(&payload)

		_, err := codec.DecodeMessage(payload)
		require.Error(t, err, field)

		var decodeErr *apierr.DecodeError
		require.ErrorAs(t, err, &decodeErr, field)
		require.Equal(t, field, decodeErr.Field)
	}
}

func TestDecodeMessageRejectsMalformedTimestamp(t *testing.T) {
	payload := validMessage()
	payload.Timestamp = "yesterday"

	_, err := newCodec().DecodeMessage(payload)

	var decodeErr *apierr.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.Equal(t, "Timestamp", decodeErr.Field)
}

func TestDecodeMessageAcceptsNaiveTimestamps(t *testing.T) {
	payload := validMessage()
	payload.Timestamp = "2025-03-01T12:00:00.123456"

	message, err := newCodec().DecodeMessage(payload)
	require.NoError(t, err)
	require.Equal(t, 123456000, message.Timestamp.Nanosecond())
}

func TestDecodeNotification(t *testing.T) {
	related := "order-5"
	created := "2025-03-01T09:30:00Z"

	notification, err := newCodec().DecodeNotification(NotificationPayload{
		ID:        "n1",
		UserID:    "user-A",
		Type:      "payment_success",
		Title:     "Payment received",
		Content:   "Campaign budget funded",
		RelatedID: &related,
		IsRead:    false,
		CreatedAt: &created,
	})
	require.NoError(t, err)

	require.Equal(t, "n1", notification.ID)
	require.Equal(t, "order-5", notification.RelatedID)
	require.False(t, notification.CreatedAt.IsZero())
}

func TestDecodeNotificationAllowsAbsentOptionalFields(t *testing.T) {
	notification, err := newCodec().DecodeNotification(NotificationPayload{
		ID:     "n1",
		UserID: "user-A",
	})
	require.NoError(t, err)
	require.Empty(t, notification.RelatedID)
	require.True(t, notification.CreatedAt.IsZero())
}

func TestDecodeNotificationRequiresIdentity(t *testing.T) {
	_, err := newCodec().DecodeNotification(NotificationPayload{UserID: "user-A"})
	require.Error(t, err)

	_, err = newCodec().DecodeNotification(NotificationPayload{ID: "n1"})
	require.Error(t, err)
}

func TestNewSentMessageFallsBackToNowOnBadTimestamp(t *testing.T) {
	before := time.Now().UTC()
	message := NewSentMessage(MessageSendResponse{Status: "ok", MessageID: "m9", Timestamp: "garbage"}, "chat-1", "user-A", "user-B", "hi")

	require.Equal(t, "m9", message.ID)
	require.True(t, message.IsRead)
	require.False(t, message.Timestamp.Before(before))
}
