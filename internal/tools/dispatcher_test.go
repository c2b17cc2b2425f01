// internal/tools/dispatcher_test.go
package tools

import (
	"context"
	"testing"

	apperrors "agri-officer/internal/common/errors"
	"agri-officer/internal/common/logger"
	"agri-officer/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWeather struct{ lastCity, lastDays string }

func (s *stubWeather) Resolve(ctx context.Context, city, days string) string {
	s.lastCity, s.lastDays = city, days
	return "weather text"
}

type stubMarket struct{ lastCommodity, lastState, lastMarket string }

func (s *stubMarket) Resolve(ctx context.Context, commodity, state, market string) string {
	s.lastCommodity, s.lastState, s.lastMarket = commodity, state, market
	return "market text"
}

type stubCalendar struct{ lastMonth string }

func (s *stubCalendar) Resolve(ctx context.Context, month string) string {
	s.lastMonth = month
	return "calendar text"
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *stubWeather, *stubMarket, *stubCalendar) {
	w, m, c := &stubWeather{}, &stubMarket{}, &stubCalendar{}
	return NewDispatcher(w, m, c, logger.NewTestLogger(t)), w, m, c
}

func call(name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:       "call_1",
		Type:     "function",
		Function: llm.FunctionCall{Name: name, Arguments: args},
	}
}

func TestDispatcher_Execute_Weather(t *testing.T) {
	d, w, _, _ := newTestDispatcher(t)

	text, err := d.Execute(context.Background(), call(ToolGetWeather, `{"city": "Mysuru", "forecast_days": "2"}`))

	require.NoError(t, err)
	assert.Equal(t, "weather text", text)
	assert.Equal(t, "Mysuru", w.lastCity)
	assert.Equal(t, "2", w.lastDays)
}

func TestDispatcher_Execute_Market(t *testing.T) {
	d, _, m, _ := newTestDispatcher(t)

	text, err := d.Execute(context.Background(), call(ToolGetMarketPrice, `{"commodity": "Tomato", "state": "Karnataka", "market": "Binny Mill"}`))

	require.NoError(t, err)
	assert.Equal(t, "market text", text)
	assert.Equal(t, "Tomato", m.lastCommodity)
	assert.Equal(t, "Karnataka", m.lastState)
	assert.Equal(t, "Binny Mill", m.lastMarket)
}

func TestDispatcher_Execute_MarketWithoutOptionalMarket(t *testing.T) {
	d, _, m, _ := newTestDispatcher(t)

	_, err := d.Execute(context.Background(), call(ToolGetMarketPrice, `{"commodity": "Onion", "state": "Karnataka"}`))

	require.NoError(t, err)
	assert.Empty(t, m.lastMarket)
}

func TestDispatcher_Execute_Calendar(t *testing.T) {
	d, _, _, c := newTestDispatcher(t)

	text, err := d.Execute(context.Background(), call(ToolGetCropCalendar, `{"month": "June"}`))

	require.NoError(t, err)
	assert.Equal(t, "calendar text", text)
	assert.Equal(t, "June", c.lastMonth)
}

func TestDispatcher_Execute_UnknownTool(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)

	_, err := d.Execute(context.Background(), call("get_horoscope", `{}`))

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnknownTool))
}

func TestDispatcher_Execute_MissingRequiredArgument(t *testing.T) {
	d, _, m, _ := newTestDispatcher(t)

	text, err := d.Execute(context.Background(), call(ToolGetMarketPrice, `{"commodity": "Tomato"}`))

	require.NoError(t, err)
	assert.Contains(t, text, "missing some details")
	assert.Empty(t, m.lastCommodity, "resolver must not run on invalid arguments")
}

func TestDispatcher_Execute_MalformedArgumentJSON(t *testing.T) {
	d, w, _, _ := newTestDispatcher(t)

	text, err := d.Execute(context.Background(), call(ToolGetWeather, `{"city": `))

	require.NoError(t, err)
	assert.Contains(t, text, "couldn't understand the arguments")
	assert.Empty(t, w.lastCity)
}

func TestDefinitions_CoverDispatchTable(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 3)

	names := make(map[string]bool)
	for _, def := range defs {
		assert.Equal(t, "function", def.Type)
		names[def.Function.Name] = true
	}
	assert.True(t, names[ToolGetWeather])
	assert.True(t, names[ToolGetMarketPrice])
	assert.True(t, names[ToolGetCropCalendar])
}
