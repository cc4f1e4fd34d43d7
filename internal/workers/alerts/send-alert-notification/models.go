package sendalertnotification

import "agrimandi-workers/internal/models"

type Input struct {
	Alert models.TriggeredAlert `json:"alert"`
	Email string                `json:"email,omitempty"`
	Phone string                `json:"phone,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Channels       []string `json:"channels"` // channels that actually delivered
	Subject        string   `json:"subject"`
}
