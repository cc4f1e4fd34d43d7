package checkpricealerts

import "time"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  20 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}
