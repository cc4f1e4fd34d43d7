package appendchatmessage

import "agrimandi-workers/internal/models"

type Input struct {
	UserID   string               `json:"userId"`
	Messages []models.ChatMessage `json:"messages"`
}

type Output struct {
	Appended int   `json:"appended"`
	Length   int64 `json:"length"` // list length after the append, 0 when unknown
	Logged   bool  `json:"logged"` // false when redis was unavailable
}
