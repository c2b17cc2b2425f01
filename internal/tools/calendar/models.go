// internal/tools/calendar/models.go
package calendar

// Entry is one month's row from the seasonal_calendar table.
type Entry struct {
	Month       string
	Season      string
	Crops       string
	Activities  string
	Precautions string
}
