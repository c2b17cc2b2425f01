// internal/tools/weather/config.go
package weather

import "time"

type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		BaseURL: "http://api.weatherapi.com/v1",
		Timeout: 10 * time.Second,
	}
}
