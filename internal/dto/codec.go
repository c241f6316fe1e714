package dto

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ugcmarket/realtime-go/internal/apierr"
	"github.com/ugcmarket/realtime-go/internal/models"
)

// timestampLayouts covers the formats the API emits: RFC 3339 with or without
// fractional seconds, and naive timestamps lacking a zone designator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a wire timestamp. Naive values are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Codec validates wire payloads and maps them into the internal model.
type Codec struct {
	validate *validator.Validate
}

// NewCodec builds a codec around a shared validator instance.
func NewCodec(validate *validator.Validate) Codec {
	return Codec{validate: validate}
}

// DecodeMessage maps a wire chat message into the model. Payloads missing a
// required field or carrying an unparsable timestamp are rejected with a
// DecodeError.
func (c Codec) DecodeMessage(payload ChatMessagePayload) (models.Message, error) {
	if err := c.validate.Struct(payload); err != nil {
		return models.Message{}, decodeError("chat message", err)
	}

	timestamp, err := ParseTimestamp(payload.Timestamp)
	if err != nil {
		return models.Message{}, &apierr.DecodeError{Payload: "chat message", Field: "Timestamp", Err: err}
	}

	return models.Message{
		ID:         payload.ID,
		ChatID:     payload.ChatID,
		SenderID:   payload.SenderID,
		ReceiverID: payload.ReceiverID,
		Content:    payload.Content,
		Timestamp:  timestamp,
		IsRead:     payload.IsRead,
	}, nil
}

// DecodeNotification maps a wire notification into the model. CreatedAt is
// optional on the wire; absent or unparsable values yield a zero time.
func (c Codec) DecodeNotification(payload NotificationPayload) (models.Notification, error) {
	if err := c.validate.Struct(payload); err != nil {
		return models.Notification{}, decodeError("notification", err)
	}

	var createdAt time.Time
	if payload.CreatedAt != nil {
		if parsed, err := ParseTimestamp(*payload.CreatedAt); err == nil {
			createdAt = parsed
		}
	}

	relatedID := ""
	if payload.RelatedID != nil {
		relatedID = *payload.RelatedID
	}

	return models.Notification{
		ID:        payload.ID,
		UserID:    payload.UserID,
		Type:      payload.Type,
		Title:     payload.Title,
		Content:   payload.Content,
		RelatedID: relatedID,
		IsRead:    payload.IsRead,
		CreatedAt: createdAt,
	}, nil
}

func decodeError(kind string, err error) *apierr.DecodeError {
	field := ""
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field = verrs[0].Field()
	}
	return &apierr.DecodeError{Payload: kind, Field: field, Err: err}
}
