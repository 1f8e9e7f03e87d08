package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestResolveWeek_MondayAnchored(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"monday is its own start", "2024-03-04", "2024-03-04"},
		{"wednesday", "2024-03-06", "2024-03-04"},
		{"sunday belongs to the previous monday", "2024-03-10", "2024-03-04"},
		{"month boundary", "2024-03-01", "2024-02-26"},
		{"year boundary", "2025-01-01", "2024-12-30"},
		{"leap day", "2024-02-29", "2024-02-26"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ResolveWeek(date(t, tt.ref))
			assert.Equal(t, tt.want, FormatDate(w.Start))
			assert.Equal(t, time.Monday, w.Start.Weekday())
		})
	}
}

func TestResolveWeek_Properties(t *testing.T) {
	d := date(t, "2019-12-01")
	for i := 0; i < 2000; i++ {
		w := ResolveWeek(d)

		require.False(t, w.Start.After(d), "start after %s", FormatDate(d))
		require.Equal(t, time.Monday, w.Start.Weekday())
		require.True(t, w.Contains(d))
		require.Equal(t, w, ResolveWeek(w.Start), "not idempotent for %s", FormatDate(d))

		for j, day := range w.Days {
			require.Equal(t, FormatDate(w.Start.AddDate(0, 0, j)), day.Date)
		}

		d = d.AddDate(0, 0, 1)
	}
}

func TestResolveWeek_IgnoresTimeOfDay(t *testing.T) {
	casablanca := time.FixedZone("UTC+1", 3600)
	lateSunday := time.Date(2024, 3, 10, 23, 59, 59, 0, casablanca)
	earlyMonday := time.Date(2024, 3, 11, 0, 0, 1, 0, time.FixedZone("UTC-10", -36000))

	assert.Equal(t, "2024-03-04", FormatDate(ResolveWeek(lateSunday).Start))
	assert.Equal(t, "2024-03-11", FormatDate(ResolveWeek(earlyMonday).Start))
}

func TestWeekWindow_Days(t *testing.T) {
	w := ResolveWeek(date(t, "2024-12-31"))

	assert.Equal(t, WeekDay{Name: "Monday", Date: "2024-12-30", Display: "30-12-2024"}, w.Days[0])
	assert.Equal(t, WeekDay{Name: "Sunday", Date: "2025-01-05", Display: "05-01-2025"}, w.Days[6])
	assert.Equal(t, "2025-01-06", FormatDate(w.End()))
	assert.Equal(t, "2025-01-05", FormatDate(w.Last()))
}

func TestWeekWindow_Shift(t *testing.T) {
	w := ResolveWeek(date(t, "2024-03-06"))

	assert.Equal(t, "2024-03-11", FormatDate(w.Shift(1).Start))
	assert.Equal(t, "2024-02-26", FormatDate(w.Shift(-1).Start))
	assert.Equal(t, w, w.Shift(3).Shift(-3))
	assert.Equal(t, w, w.Shift(0))
}

func TestWeekWindow_Index(t *testing.T) {
	w := ResolveWeek(date(t, "2024-03-04"))

	assert.Equal(t, 0, w.Index(date(t, "2024-03-04")))
	assert.Equal(t, 6, w.Index(date(t, "2024-03-10")))
	assert.Equal(t, -1, w.Index(date(t, "2024-03-11")))
	assert.Equal(t, -1, w.Index(date(t, "2024-03-03")))
}

func TestDateHelpers(t *testing.T) {
	assert.True(t, IsWeekend(date(t, "2024-03-09")))
	assert.True(t, IsWeekend(date(t, "2024-03-10")))
	assert.False(t, IsWeekend(date(t, "2024-03-08")))

	assert.Equal(t, 7, DaysInclusive(date(t, "2024-03-04"), date(t, "2024-03-10")))
	assert.Equal(t, 1, DaysInclusive(date(t, "2024-03-04"), date(t, "2024-03-04")))
	assert.Equal(t, 0, DaysInclusive(date(t, "2024-03-05"), date(t, "2024-03-04")))

	first, last := MonthBounds(date(t, "2024-02-14"))
	assert.Equal(t, "2024-02-01", FormatDate(first))
	assert.Equal(t, "2024-02-29", FormatDate(last))

	var days []string
	EachDay(date(t, "2024-02-28"), date(t, "2024-03-01"), func(d time.Time) {
		days = append(days, FormatDate(d))
	})
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, days)

	_, err := ParseDate("2024-13-01")
	assert.Error(t, err)
}
