package generatepricehistory

import "time"

type Config struct {
	Timeout     time.Duration
	PriceIndex  string
	HistoryDays int
	CacheTTL    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		PriceIndex:  "mandi-prices",
		HistoryDays: 30,
		CacheTTL:    time.Hour,
	}
}
