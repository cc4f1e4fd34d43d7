package appendchatmessage

import "time"

type Config struct {
	Timeout time.Duration
	ChatTTL time.Duration
	MaxLen  int64 // conversation log cap per user
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		ChatTTL: 7 * 24 * time.Hour,
		MaxLen:  200,
	}
}
