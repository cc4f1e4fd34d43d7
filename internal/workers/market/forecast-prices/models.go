package forecastprices

import "agrimandi-workers/internal/models"

type Input struct {
	Crop string `json:"crop"`
	Days int    `json:"days,omitempty"` // defaults to config ForecastDays
	Seed int64  `json:"seed,omitempty"`
}

type Output struct {
	Crop      string                 `json:"crop"`
	Forecast  []models.ForecastPoint `json:"forecast"`
	FromCache bool                   `json:"fromCache"` // trend derived from the cached series
}
