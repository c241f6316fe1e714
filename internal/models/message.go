package models

import "time"

// Message is a single chat message in the client-side model. Instances originate
// either from a history fetch, from a realtime push, or from the server
// acknowledgement of a send; they are merged into a conversation's list by ID.
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	ReceiverID string
	Content    string
	Timestamp  time.Time
	IsRead     bool
}
