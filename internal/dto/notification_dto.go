package dto

// NotificationPayload is the wire representation of a notification.
type NotificationPayload struct {
	ID        string  `json:"id" validate:"required"`
	UserID    string  `json:"user_id" validate:"required"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	RelatedID *string `json:"related_id"`
	IsRead    bool    `json:"is_read"`
	CreatedAt *string `json:"created_at"`
}

// NotificationListResponse is the notification fetch envelope.
type NotificationListResponse struct {
	Total int                   `json:"total"`
	Items []NotificationPayload `json:"items"`
}
