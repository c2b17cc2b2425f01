// internal/tools/calendar/resolver.go
package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Apology is returned verbatim when the calendar store cannot be queried.
const Apology = "Sorry, I couldn't fetch the crop calendar information at this time."

// Logger is the minimal logging interface the resolver needs.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Resolver struct {
	db     *sql.DB
	logger Logger
}

func NewResolver(db *sql.DB, logger Logger) *Resolver {
	return &Resolver{db: db, logger: logger}
}

const entryQuery = `
	SELECT month, season, crops, activities, precautions
	FROM seasonal_calendar
	WHERE LOWER(month) = LOWER($1)`

// Resolve looks up the seasonal calendar entry for a month and renders it as
// plain text. An empty month defaults to the current month. Like the other
// tools it never returns an error; store failures collapse to the apology.
func (r *Resolver) Resolve(ctx context.Context, month string) string {
	month = strings.TrimSpace(month)
	if month == "" {
		month = time.Now().Month().String()
	}

	var entry Entry
	row := r.db.QueryRowContext(ctx, entryQuery, month)
	err := row.Scan(&entry.Month, &entry.Season, &entry.Crops, &entry.Activities, &entry.Precautions)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Sprintf("I don't have crop calendar information for %s.", month)
	}
	if err != nil {
		r.logger.Error("Crop calendar query failed", map[string]interface{}{
			"month": month,
			"error": err.Error(),
		})
		return Apology
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Crop calendar for %s (%s season):\n", entry.Month, entry.Season)
	fmt.Fprintf(&b, "- Recommended crops: %s\n", entry.Crops)
	fmt.Fprintf(&b, "- Key activities: %s\n", entry.Activities)
	fmt.Fprintf(&b, "- Precautions: %s", entry.Precautions)
	return b.String()
}

// Unavailable stands in for the resolver when no calendar store is
// configured.
type Unavailable struct{}

func (Unavailable) Resolve(ctx context.Context, month string) string {
	return Apology
}
