package rest

import (
	"context"
	"net/http"

	"github.com/ugcmarket/realtime-go/internal/dto"
	"github.com/ugcmarket/realtime-go/internal/models"
)

// Notifications fetches and decodes the full notification list for the
// authenticated user.
func (c *Client) Notifications(ctx context.Context, token string) ([]models.Notification, error) {
	var response dto.NotificationListResponse
	if err := c.Do(ctx, http.MethodGet, "/api/notifications", token, nil, &response); err != nil {
		return nil, err
	}

	items := make([]models.Notification, 0, len(response.Items))
	for _, item := range response.Items {
		notification, err := c.codec.DecodeNotification(item)
		if err != nil {
			return nil, err
		}
		items = append(items, notification)
	}

	return items, nil
}

// MarkNotificationRead acknowledges a single notification.
func (c *Client) MarkNotificationRead(ctx context.Context, id, token string) error {
	return c.Do(ctx, http.MethodPatch, "/api/notifications/"+id+"/read", token, nil, nil)
}
