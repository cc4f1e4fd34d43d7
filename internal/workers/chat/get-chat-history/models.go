package getchathistory

import "agrimandi-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
	Limit  int64  `json:"limit,omitempty"` // most recent turns; 0 uses the configured default
}

type Output struct {
	Messages []models.ChatMessage `json:"messages"`
	Count    int                  `json:"count"`
	Total    int64                `json:"total"` // full list length before the limit window
}
