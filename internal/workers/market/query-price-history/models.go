package querypricehistory

import "agrimandi-workers/internal/models"

type Input struct {
	Crop string `json:"crop"`
	From string `json:"from,omitempty"` // yyyy-mm-dd, defaults to 30 days back
	To   string `json:"to,omitempty"`   // yyyy-mm-dd, defaults to today
}

type Output struct {
	Crop   string              `json:"crop"`
	Points []models.PricePoint `json:"points"`
	Count  int                 `json:"count"`
}
