// internal/tools/dispatcher.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "agri-officer/internal/common/errors"
	"agri-officer/internal/common/logger"
	"agri-officer/internal/common/metrics"
	"agri-officer/internal/common/validation"
	"agri-officer/internal/llm"
)

// WeatherResolver answers a weather lookup with user-facing text.
type WeatherResolver interface {
	Resolve(ctx context.Context, city string, forecastDays string) string
}

// MarketResolver answers a mandi price lookup with user-facing text.
type MarketResolver interface {
	Resolve(ctx context.Context, commodity, state, market string) string
}

// CalendarResolver answers a crop calendar lookup with user-facing text.
type CalendarResolver interface {
	Resolve(ctx context.Context, month string) string
}

// Dispatcher routes a model tool call to the matching resolver. Resolvers
// never fail outward, so the only error Execute can return is an unknown
// tool name; everything else comes back as text for the model to relay.
type Dispatcher struct {
	weather  WeatherResolver
	market   MarketResolver
	calendar CalendarResolver
	logger   logger.Logger
}

func NewDispatcher(weather WeatherResolver, market MarketResolver, calendar CalendarResolver, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		weather:  weather,
		market:   market,
		calendar: calendar,
		logger:   log,
	}
}

// Execute runs a single tool call and returns the text to feed back to the
// model as the tool turn.
func (d *Dispatcher) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	name := call.Function.Name

	var schema validation.JSONSchema
	switch name {
	case ToolGetWeather:
		schema = weatherSchema
	case ToolGetMarketPrice:
		schema = marketSchema
	case ToolGetCropCalendar:
		schema = calendarSchema
	default:
		metrics.ToolExecutionsTotal.WithLabelValues(name, "unknown").Inc()
		return "", apperrors.NewUnknownToolError(name)
	}

	args, problem := d.decodeArgs(name, call.Function.Arguments, schema)
	if problem != "" {
		metrics.ToolExecutionsTotal.WithLabelValues(name, "invalid_args").Inc()
		return problem, nil
	}

	d.logger.Info("Executing tool", map[string]interface{}{
		"tool":    name,
		"call_id": call.ID,
	})

	var text string
	switch name {
	case ToolGetWeather:
		text = d.weather.Resolve(ctx, stringArg(args, "city"), stringArg(args, "forecast_days"))
	case ToolGetMarketPrice:
		text = d.market.Resolve(ctx, stringArg(args, "commodity"), stringArg(args, "state"), stringArg(args, "market"))
	case ToolGetCropCalendar:
		text = d.calendar.Resolve(ctx, stringArg(args, "month"))
	}

	metrics.ToolExecutionsTotal.WithLabelValues(name, "success").Inc()
	return text, nil
}

// decodeArgs parses and validates the JSON argument blob. Malformed or
// invalid arguments come back as a textual problem for the model rather
// than an error, so a sloppy model call still gets a reply.
func (d *Dispatcher) decodeArgs(name, raw string, schema validation.JSONSchema) (map[string]interface{}, string) {
	args := make(map[string]interface{})
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			d.logger.Warn("Tool arguments are not valid JSON", map[string]interface{}{
				"tool":  name,
				"error": err.Error(),
			})
			return nil, fmt.Sprintf("Sorry, I couldn't understand the arguments for %s. Please rephrase your question.", name)
		}
	}

	result, err := validation.Validate(args, schema)
	if err != nil {
		d.logger.Error("Tool argument validation failed", map[string]interface{}{
			"tool":  name,
			"error": err.Error(),
		})
		return nil, fmt.Sprintf("Sorry, I couldn't process the request for %s at this time.", name)
	}
	if !result.Valid {
		d.logger.Warn("Tool arguments rejected by schema", map[string]interface{}{
			"tool":  name,
			"error": apperrors.NewValidationError(result.Describe()).Error(),
		})
		return nil, fmt.Sprintf("Sorry, the request for %s was missing some details (%s). Please ask again with more specifics.", name, result.Describe())
	}

	return args, ""
}

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
