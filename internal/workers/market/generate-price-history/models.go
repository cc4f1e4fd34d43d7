package generatepricehistory

import "agrimandi-workers/internal/models"

type Input struct {
	Crop string `json:"crop"`
	Days int    `json:"days,omitempty"` // defaults to config HistoryDays
	Seed int64  `json:"seed,omitempty"` // fixed seed makes the series reproducible
}

type Output struct {
	Crop        string              `json:"crop"`
	Points      []models.PricePoint `json:"points"`
	LatestPrice float64             `json:"latestPrice"`
	Indexed     bool                `json:"indexed"`
	Cached      bool                `json:"cached"`
}
