// internal/tools/market/config.go
package market

import "time"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		BaseURL: "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070",
		Timeout: 15 * time.Second,
	}
}
