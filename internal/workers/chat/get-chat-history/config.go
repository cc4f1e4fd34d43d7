package getchathistory

import "time"

type Config struct {
	Timeout time.Duration
	Limit   int64 // default number of most recent turns
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		Limit:   50,
	}
}
