package querypricehistory

import "time"

type Config struct {
	Timeout    time.Duration
	PriceIndex string
	MaxPoints  int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    15 * time.Second,
		PriceIndex: "mandi-prices",
		MaxPoints:  365,
	}
}
