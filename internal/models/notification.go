package models

import "time"

// Notification categories the platform currently emits. Unknown categories are
// still accepted; consumers fall back to a default presentation for them.
const (
	NotificationPaymentSuccess = "payment_success"
	NotificationAdminNotice    = "admin_notice"
	NotificationChatMessage    = "chat_message"
)

// Notification is a one-way, user-scoped alert.
type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Content   string
	RelatedID string
	IsRead    bool
	CreatedAt time.Time
}
