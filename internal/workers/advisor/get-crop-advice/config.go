package getcropadvice

import "time"

type Config struct {
	Timeout    time.Duration
	HistoryMax int
	ChatTTL    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		HistoryMax: 10,
		ChatTTL:    7 * 24 * time.Hour,
	}
}
