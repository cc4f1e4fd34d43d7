package sendalertnotification

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "alerts@agrimandi.in",
		SenderID:     "AGRIMD",
	}
}
