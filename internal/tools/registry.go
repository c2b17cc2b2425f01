// internal/tools/registry.go
package tools

import (
	"agri-officer/internal/common/validation"
	"agri-officer/internal/llm"
)

// Tool names as exposed to the model. The dispatch switch in Execute is
// closed over exactly this set.
const (
	ToolGetWeather      = "get_weather"
	ToolGetMarketPrice  = "get_market_price"
	ToolGetCropCalendar = "get_crop_calendar"
)

var weatherSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"city": {
			Type:        "string",
			Description: "The city or town to get weather for, e.g. Mysuru",
		},
		"forecast_days": {
			Type:        "string",
			Description: "Number of forecast days as a string, from 1 to 3. Use 1 for current conditions.",
		},
	},
	Required: []string{"city"},
}

var marketSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"commodity": {
			Type:        "string",
			Description: "The crop or commodity to look up, e.g. Tomato",
		},
		"state": {
			Type:        "string",
			Description: "The Indian state to search in, e.g. Karnataka",
		},
		"market": {
			Type:        "string",
			Description: "A specific mandi or market to prefer, e.g. Binny Mill. Optional.",
		},
	},
	Required: []string{"commodity", "state"},
}

var calendarSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"month": {
			Type:        "string",
			Description: "The month to get the crop calendar for, e.g. June. Defaults to the current month.",
		},
	},
}

// Definitions returns the tool catalogue advertised to the model on every
// tool-check call.
func Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		llm.NewToolDefinition(ToolGetWeather,
			"Get the current weather or a short forecast for a city. Use when the farmer asks about weather, rain, or temperature.",
			weatherSchema),
		llm.NewToolDefinition(ToolGetMarketPrice,
			"Get the latest mandi price for a commodity in an Indian state, optionally preferring a specific market.",
			marketSchema),
		llm.NewToolDefinition(ToolGetCropCalendar,
			"Get the seasonal crop calendar for a month: recommended crops, activities and precautions.",
			calendarSchema),
	}
}
