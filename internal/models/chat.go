package models

import "time"

// ChatMessage is one turn in a farmer's advice conversation, stored as
// an append-only redis list per user.
type ChatMessage struct {
	Role      string    `json:"role"` // user | assistant
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatHistoryKey returns the redis list key for a user's conversation.
func ChatHistoryKey(userID string) string {
	return "chat:history:" + userID
}
