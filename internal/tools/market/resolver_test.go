// internal/tools/market/resolver_test.go
package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "agri-officer/internal/common/errors"
	"agri-officer/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls   []fetchCall
	results [][]Record
	errs    []error
}

type fetchCall struct {
	filters map[string]string
	limit   int
}

func (f *fakeSource) Fetch(ctx context.Context, filters map[string]string, limit int) ([]Record, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, fetchCall{filters: filters, limit: limit})
	var records []Record
	var err error
	if idx < len(f.results) {
		records = f.results[idx]
	}
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return records, err
}

func TestResolver_Resolve_SpecificMarketHit(t *testing.T) {
	source := &fakeSource{results: [][]Record{{
		{Market: "Binny Mill", Commodity: "Tomato", ArrivalDate: "01/06/2024", ModalPrice: "1800"},
		{Market: "Binny Mill", Commodity: "Tomato", ArrivalDate: "03/06/2024", ModalPrice: "2000"},
		{Market: "Binny Mill", Commodity: "Tomato", ArrivalDate: "02/06/2024", ModalPrice: "1900"},
	}}}
	resolver := NewResolver(source, logger.NewTestLogger(t))

	text := resolver.Resolve(context.Background(), "tomato", "karnataka", "binny mill")

	assert.Equal(t, "Latest price for Tomato in Binny Mill (on 03/06/2024): ₹2000 per Quintal.", text)
	require.Len(t, source.calls, 1)
	assert.Equal(t, map[string]string{"state": "Karnataka", "market": "Binny Mill", "commodity": "Tomato"}, source.calls[0].filters)
	assert.Equal(t, specificSearchLimit, source.calls[0].limit)
}

func TestResolver_Resolve_FallsBackToBroadSearch(t *testing.T) {
	source := &fakeSource{results: [][]Record{
		nil,
		{
			{Market: "Kolar", ArrivalDate: "04/06/2024", ModalPrice: "2100"},
			{Market: "Mysore", ArrivalDate: "05/06/2024", ModalPrice: "2200"},
		},
	}}
	resolver := NewResolver(source, logger.NewTestLogger(t))

	text := resolver.Resolve(context.Background(), "Tomato", "Karnataka", "Binny Mill")

	require.Len(t, source.calls, 2)
	assert.Equal(t, map[string]string{"state": "Karnataka", "commodity": "Tomato"}, source.calls[1].filters)
	assert.Equal(t, broadSearchLimit, source.calls[1].limit)
	assert.Contains(t, text, "Sorry, I couldn't find recent data for 'Tomato' specifically in the 'Binny Mill' market.")
	assert.Contains(t, text, "here are the latest prices from other markets in Karnataka:")
	assert.Contains(t, text, "- **Mysore** (on 05/06/2024): ₹2200 per Quintal.")
	assert.Contains(t, text, "- **Kolar** (on 04/06/2024): ₹2100 per Quintal.")
}

func TestResolver_Resolve_BroadSearchDeduplicatesByMarket(t *testing.T) {
	source := &fakeSource{results: [][]Record{{
		{Market: "A", ArrivalDate: "01/01/2024", ModalPrice: "100"},
		{Market: "B", ArrivalDate: "03/01/2024", ModalPrice: "300"},
		{Market: "B", ArrivalDate: "02/01/2024", ModalPrice: "200"},
	}}}
	resolver := NewResolver(source, logger.NewTestLogger(t))

	text := resolver.Resolve(context.Background(), "Onion", "Karnataka", "")

	assert.Contains(t, text, "- **B** (on 03/01/2024): ₹300 per Quintal.")
	assert.Contains(t, text, "- **A** (on 01/01/2024): ₹100 per Quintal.")
	assert.NotContains(t, text, "02/01/2024")
	// Newest market first.
	assert.Less(t, strings.Index(text, "**B**"), strings.Index(text, "**A**"))
}

func TestResolver_Resolve_BroadSearchCapsAtThreeMarkets(t *testing.T) {
	source := &fakeSource{results: [][]Record{{
		{Market: "A", ArrivalDate: "05/01/2024", ModalPrice: "1"},
		{Market: "B", ArrivalDate: "04/01/2024", ModalPrice: "2"},
		{Market: "C", ArrivalDate: "03/01/2024", ModalPrice: "3"},
		{Market: "D", ArrivalDate: "02/01/2024", ModalPrice: "4"},
	}}}
	resolver := NewResolver(source, logger.NewTestLogger(t))

	text := resolver.Resolve(context.Background(), "Onion", "Karnataka", "")

	assert.Contains(t, text, "**A**")
	assert.Contains(t, text, "**B**")
	assert.Contains(t, text, "**C**")
	assert.NotContains(t, text, "**D**")
}

func TestResolver_Resolve_NoDataAnywhere(t *testing.T) {
	source := &fakeSource{}
	resolver := NewResolver(source, logger.NewTestLogger(t))

	text := resolver.Resolve(context.Background(), "Jackfruit", "Kerala", "Kochi")

	assert.Equal(t, "Sorry, I couldn't find any recent price data for 'Jackfruit' in any market in Kerala. Please check the commodity spelling or try again later.", text)
	assert.Len(t, source.calls, 2)
}

func TestResolver_Resolve_SourceErrorTreatedAsNoData(t *testing.T) {
	source := &fakeSource{errs: []error{errors.New("connection refused"), errors.New("connection refused")}}
	resolver := NewResolver(source, logger.NewTestLogger(t))

	text := resolver.Resolve(context.Background(), "Tomato", "Karnataka", "Binny Mill")

	assert.Contains(t, text, "Sorry, I couldn't find any recent price data for 'Tomato'")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Binny Mill", titleCase("binny mill"))
	assert.Equal(t, "Karnataka", titleCase("KARNATAKA"))
	assert.Equal(t, "", titleCase("  "))
}

func TestRecord_ArrivalTimeUnparseableSortsLast(t *testing.T) {
	records := []Record{
		{Market: "A", ArrivalDate: "garbage"},
		{Market: "B", ArrivalDate: "01/01/2024"},
	}
	sorted := sortByArrivalDesc(records)
	assert.Equal(t, "B", sorted[0].Market)
}

func TestHTTPSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "Tomato", r.URL.Query().Get("filters[commodity]"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"records": [{"state": "Karnataka", "market": "Kolar", "commodity": "Tomato", "arrival_date": "01/06/2024", "modal_price": "1500"}]}`)
	}))
	defer server.Close()

	source := NewHTTPSource(&Config{BaseURL: server.URL, APIKey: "test-key", Timeout: 5 * time.Second})

	records, err := source.Fetch(context.Background(), map[string]string{"commodity": "Tomato"}, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Kolar", records[0].Market)
	assert.Equal(t, "1500", records[0].ModalPrice)
}

func TestHTTPSource_FetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewHTTPSource(&Config{BaseURL: server.URL, Timeout: 5 * time.Second})

	_, err := source.Fetch(context.Background(), nil, 10)
	assert.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExternalService))
}
