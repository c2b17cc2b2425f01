// internal/tools/weather/resolver.go
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	httpclient "agri-officer/internal/common/http"
)

// Apology is returned verbatim whenever the upstream weather service cannot
// be reached or returns an unusable payload. The model translates it into
// the user's language downstream.
const Apology = "Sorry, I couldn't fetch the weather information at this time."

const defaultCity = "Mysuru"

// Logger is the minimal logging interface the resolver needs.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Cache abstracts the Redis-backed response cache. A nil Cache disables
// caching entirely.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Resolver struct {
	config *Config
	client *httpclient.Client
	cache  Cache
	logger Logger
}

func NewResolver(config *Config, cache Cache, logger Logger) *Resolver {
	return &Resolver{
		config: config,
		client: httpclient.NewClient(config.Timeout),
		cache:  cache,
		logger: logger,
	}
}

// CoerceDays normalizes the string-encoded forecast_days argument. Anything
// that is not an integer between 1 and 3 falls back to 1.
func CoerceDays(raw string) int {
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days < 1 || days > 3 {
		return 1
	}
	return days
}

// Resolve fetches current conditions (days == 1) or a short forecast for the
// given city and renders them as plain text for the model. It never returns
// an error: any failure collapses to the apology string.
func (r *Resolver) Resolve(ctx context.Context, city string, forecastDays string) string {
	if strings.TrimSpace(city) == "" {
		city = defaultCity
	}
	days := CoerceDays(forecastDays)

	cacheKey := fmt.Sprintf("weather:%s:%d", strings.ToLower(strings.TrimSpace(city)), days)
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			r.logger.Info("Weather cache hit", map[string]interface{}{"key": cacheKey})
			return cached
		}
	}

	resp, err := r.fetch(ctx, city, days)
	if err != nil {
		r.logger.Error("Weather fetch failed", map[string]interface{}{
			"city":  city,
			"days":  days,
			"error": err.Error(),
		})
		return Apology
	}

	text := r.render(resp, days)

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey, text, r.config.CacheTTL); err != nil {
			r.logger.Warn("Weather cache write failed", map[string]interface{}{
				"key":   cacheKey,
				"error": err.Error(),
			})
		}
	}

	return text
}

func (r *Resolver) fetch(ctx context.Context, city string, days int) (*forecastResponse, error) {
	params := url.Values{}
	params.Set("key", r.config.APIKey)
	params.Set("q", city)
	params.Set("days", strconv.Itoa(days))
	params.Set("aqi", "no")
	params.Set("alerts", "no")

	endpoint := fmt.Sprintf("%s/forecast.json?%s", r.config.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	httpResp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("weather API returned status %d: %s", httpResp.StatusCode, string(body))
	}

	var resp forecastResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if resp.Location.Name == "" {
		return nil, fmt.Errorf("weather response missing location")
	}

	return &resp, nil
}

func (r *Resolver) render(resp *forecastResponse, days int) string {
	if days == 1 {
		return fmt.Sprintf("The current weather in %s is %s with a temperature of %.1f°C.",
			resp.Location.Name, resp.Current.Condition.Text, resp.Current.TempC)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weather forecast for %s:\n", resp.Location.Name)
	for _, day := range resp.Forecast.ForecastDay {
		fmt.Fprintf(&b, "- %s: %s, max %.1f°C, min %.1f°C, chance of rain %.0f%%.\n",
			day.Date, day.Day.Condition.Text, day.Day.MaxTempC, day.Day.MinTempC, day.Day.DailyChanceOfRain)
	}
	return strings.TrimRight(b.String(), "\n")
}
