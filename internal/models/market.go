package models

import "time"

// PricePoint is one day of the simulated mandi price series.
type PricePoint struct {
	Crop      string    `json:"crop"`
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"` // rupees per quintal
	Simulated bool      `json:"simulated"`
}

// ForecastPoint extends a price point with a per-day confidence that
// decays further into the future. The forecast is a simulation, not a
// statistical model.
type ForecastPoint struct {
	Crop       string    `json:"crop"`
	Date       time.Time `json:"date"`
	Price      float64   `json:"price"`
	Confidence float64   `json:"confidence"` // 0..1
}

// PriceSeriesKey returns the redis cache key for a crop's price series.
func PriceSeriesKey(crop string) string {
	return "market:prices:" + crop
}

// LatestPriceKey returns the redis key holding a crop's most recent price.
func LatestPriceKey(crop string) string {
	return "market:latest:" + crop
}
