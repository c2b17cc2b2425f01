// internal/tools/calendar/resolver_test.go
package calendar

import (
	"context"
	"errors"
	"testing"

	"agri-officer/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve_MonthFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"month", "season", "crops", "activities", "precautions"}).
		AddRow("June", "Kharif", "Paddy, Ragi, Maize", "Land preparation, sowing", "Watch for early blight after first rains")
	mock.ExpectQuery("SELECT month, season, crops, activities, precautions").
		WithArgs("June").
		WillReturnRows(rows)

	resolver := NewResolver(db, logger.NewTestLogger(t))
	text := resolver.Resolve(context.Background(), "June")

	assert.Contains(t, text, "Crop calendar for June (Kharif season):")
	assert.Contains(t, text, "- Recommended crops: Paddy, Ragi, Maize")
	assert.Contains(t, text, "- Key activities: Land preparation, sowing")
	assert.Contains(t, text, "- Precautions: Watch for early blight after first rains")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolver_Resolve_MonthMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT month, season, crops, activities, precautions").
		WithArgs("Undecember").
		WillReturnRows(sqlmock.NewRows([]string{"month", "season", "crops", "activities", "precautions"}))

	resolver := NewResolver(db, logger.NewTestLogger(t))
	text := resolver.Resolve(context.Background(), "Undecember")

	assert.Equal(t, "I don't have crop calendar information for Undecember.", text)
}

func TestResolver_Resolve_QueryErrorReturnsApology(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT month, season, crops, activities, precautions").
		WillReturnError(errors.New("connection reset"))

	resolver := NewResolver(db, logger.NewTestLogger(t))
	text := resolver.Resolve(context.Background(), "June")

	assert.Equal(t, Apology, text)
}

func TestResolver_Resolve_EmptyMonthDefaultsToCurrent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT month, season, crops, activities, precautions").
		WillReturnRows(sqlmock.NewRows([]string{"month", "season", "crops", "activities", "precautions"}))

	resolver := NewResolver(db, logger.NewTestLogger(t))
	text := resolver.Resolve(context.Background(), "  ")

	assert.Contains(t, text, "I don't have crop calendar information for")
}
