package forecastprices

import "time"

type Config struct {
	Timeout      time.Duration
	ForecastDays int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		ForecastDays: 7,
	}
}
