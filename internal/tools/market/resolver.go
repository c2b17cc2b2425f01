// internal/tools/market/resolver.go
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"

	apperrors "agri-officer/internal/common/errors"
	httpclient "agri-officer/internal/common/http"
)

const (
	specificSearchLimit = 10
	broadSearchLimit    = 20
	maxFallbackMarkets  = 3
)

// Logger is the minimal logging interface the resolver needs.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// PriceSource fetches mandi price records matching the given field filters.
// The HTTP implementation talks to data.gov.in; tests substitute their own.
type PriceSource interface {
	Fetch(ctx context.Context, filters map[string]string, limit int) ([]Record, error)
}

type Resolver struct {
	source PriceSource
	logger Logger
}

func NewResolver(source PriceSource, logger Logger) *Resolver {
	return &Resolver{source: source, logger: logger}
}

// Resolve runs the two-step price lookup: an exact state+market+commodity
// search first, then a broader state+commodity search across all markets.
// It always returns user-facing text; source failures are treated as empty
// result sets so the broader search still gets its chance.
func (r *Resolver) Resolve(ctx context.Context, commodity, state, marketName string) string {
	commodity = titleCase(commodity)
	state = titleCase(state)
	marketName = titleCase(marketName)

	if marketName != "" {
		records := r.fetch(ctx, map[string]string{
			"state":     state,
			"market":    marketName,
			"commodity": commodity,
		}, specificSearchLimit)
		if len(records) > 0 {
			latest := sortByArrivalDesc(records)[0]
			return fmt.Sprintf("Latest price for %s in %s (on %s): ₹%s per Quintal.",
				commodity, marketName, latest.ArrivalDate, latest.ModalPrice)
		}
		r.logger.Info("No specific market data, widening search", map[string]interface{}{
			"commodity": commodity,
			"state":     state,
			"market":    marketName,
		})
	}

	records := r.fetch(ctx, map[string]string{
		"state":     state,
		"commodity": commodity,
	}, broadSearchLimit)
	if len(records) > 0 {
		top := latestPerMarket(records, maxFallbackMarkets)
		var b strings.Builder
		if marketName != "" {
			fmt.Fprintf(&b, "Sorry, I couldn't find recent data for '%s' specifically in the '%s' market. However, here are the latest prices from other markets in %s:\n",
				commodity, marketName, state)
		} else {
			fmt.Fprintf(&b, "Here are the latest prices for '%s' from markets in %s:\n", commodity, state)
		}
		for _, rec := range top {
			fmt.Fprintf(&b, "- **%s** (on %s): ₹%s per Quintal.\n", rec.Market, rec.ArrivalDate, rec.ModalPrice)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	return fmt.Sprintf("Sorry, I couldn't find any recent price data for '%s' in any market in %s. Please check the commodity spelling or try again later.",
		commodity, state)
}

func (r *Resolver) fetch(ctx context.Context, filters map[string]string, limit int) []Record {
	records, err := r.source.Fetch(ctx, filters, limit)
	if err != nil {
		r.logger.Error("Market price fetch failed", map[string]interface{}{
			"filters": filters,
			"error":   err.Error(),
		})
		return nil
	}
	return records
}

// sortByArrivalDesc returns the records ordered newest first. The sort is
// stable so records sharing a date keep their feed order.
func sortByArrivalDesc(records []Record) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].arrivalTime().After(sorted[j].arrivalTime())
	})
	return sorted
}

// latestPerMarket keeps only the most recent record for each market, newest
// market first, capped at limit entries.
func latestPerMarket(records []Record, limit int) []Record {
	sorted := sortByArrivalDesc(records)
	seen := make(map[string]bool)
	var out []Record
	for _, rec := range sorted {
		if seen[rec.Market] {
			continue
		}
		seen[rec.Market] = true
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out
}

// titleCase uppercases the first letter of each space-separated word, the
// casing the data.gov.in feed uses for states, markets and commodities.
func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// HTTPSource is the production PriceSource backed by the data.gov.in
// commodity price feed.
type HTTPSource struct {
	config *Config
	client *httpclient.Client
}

func NewHTTPSource(config *Config) *HTTPSource {
	return &HTTPSource{
		config: config,
		client: httpclient.NewClient(config.Timeout),
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, filters map[string]string, limit int) ([]Record, error) {
	params := url.Values{}
	params.Set("api-key", s.config.APIKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	for field, value := range filters {
		params.Set(fmt.Sprintf("filters[%s]", field), value)
	}

	endpoint := fmt.Sprintf("%s?%s", s.config.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create market request: %w", err)
	}

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("data.gov.in", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, apperrors.NewExternalServiceError("data.gov.in",
			fmt.Errorf("status %d: %s", httpResp.StatusCode, string(body)))
	}

	var resp feedResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode market response: %w", err)
	}

	return resp.Records, nil
}
