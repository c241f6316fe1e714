package dto

import (
	"time"

	"github.com/ugcmarket/realtime-go/internal/models"
)

// ChatMessagePayload is the wire representation of a chat message as the API
// emits it, both in REST history responses and realtime push frames.
type ChatMessagePayload struct {
	ID         string `json:"id" validate:"required"`
	ChatID     string `json:"chat_id" validate:"required"`
	SenderID   string `json:"sender_id" validate:"required"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content" validate:"required"`
	IsRead     bool   `json:"is_read"`
	Timestamp  string `json:"timestamp" validate:"required"`
}

// MessageListResponse is the chat history envelope.
type MessageListResponse struct {
	Total int                  `json:"total"`
	Items []ChatMessagePayload `json:"items"`
}

// MessageSendRequest is the payload for sending a chat message.
type MessageSendRequest struct {
	ChatID     string `json:"chat_id" validate:"required"`
	ReceiverID string `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// MessageSendResponse acknowledges a sent message with its server-assigned identity.
type MessageSendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Timestamp string `json:"timestamp"`
}

// NewSentMessage builds the local model for a message the server just
// acknowledged. The server assigns id and timestamp; the remaining fields come
// from the send parameters. Own messages are considered read.
func NewSentMessage(ack MessageSendResponse, chatID, senderID, receiverID, content string) models.Message {
	timestamp, err := ParseTimestamp(ack.Timestamp)
	if err != nil {
		timestamp = time.Now().UTC()
	}

	return models.Message{
		ID:         ack.MessageID,
		ChatID:     chatID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  timestamp,
		IsRead:     true,
	}
}
