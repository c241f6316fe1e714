package rest

import (
	"context"
	"net/http"

	"github.com/ugcmarket/realtime-go/internal/dto"
	"github.com/ugcmarket/realtime-go/internal/models"
)

// SendParams carries everything a chat send round-trip needs.
type SendParams struct {
	ChatID     string
	SenderID   string
	ReceiverID string
	Content    string
	Token      string
}

// ChatHistory fetches and decodes the message history of a conversation.
// History responses are consumed synchronously, so a message failing
// validation rejects the whole fetch rather than being dropped the way
// realtime frames are.
func (c *Client) ChatHistory(ctx context.Context, chatID, token string) ([]models.Message, error) {
	var response dto.MessageListResponse
	if err := c.Do(ctx, http.MethodGet, "/api/chat/"+chatID, token, nil, &response); err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(response.Items))
	for _, item := range response.Items {
		message, err := c.codec.DecodeMessage(item)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

// SendChatMessage posts a message and returns the server-acknowledged model.
func (c *Client) SendChatMessage(ctx context.Context, params SendParams) (models.Message, error) {
	request := dto.MessageSendRequest{
		ChatID:     params.ChatID,
		ReceiverID: params.ReceiverID,
		Content:    params.Content,
	}

	var ack dto.MessageSendResponse
	if err := c.Do(ctx, http.MethodPost, "/api/chat/send", params.Token, request, &ack); err != nil {
		return models.Message{}, err
	}

	return dto.NewSentMessage(ack, params.ChatID, params.SenderID, params.ReceiverID, params.Content), nil
}
