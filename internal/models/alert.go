package models

import "time"

// AlertDirection says which side of the threshold triggers the alert.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// AlertThreshold is a user-configured price watch stored in postgres.
type AlertThreshold struct {
	ID        string         `json:"id" db:"id"`
	UserID    string         `json:"userId" db:"user_id"`
	Crop      string         `json:"crop" db:"crop"`
	Threshold float64        `json:"threshold" db:"threshold"` // rupees per quintal
	Direction AlertDirection `json:"direction" db:"direction"`
	Active    bool           `json:"active" db:"active"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

// TriggeredAlert is emitted when a latest price crosses a threshold.
type TriggeredAlert struct {
	AlertID     string         `json:"alertId"`
	UserID      string         `json:"userId"`
	Crop        string         `json:"crop"`
	Threshold   float64        `json:"threshold"`
	Direction   AlertDirection `json:"direction"`
	Price       float64        `json:"price"`
	TriggeredAt time.Time      `json:"triggeredAt"`
}

// ThresholdCacheKey returns the redis cache key for a user's thresholds.
func ThresholdCacheKey(userID string) string {
	return "alerts:thresholds:" + userID
}
