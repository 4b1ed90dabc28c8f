package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tversu/timing-bot/pkg/timeutil"
)

func TestCurrentDayOfWeek(t *testing.T) {
	tests := []struct {
		name   string
		at     time.Time
		want   DayOfWeek
		wantOK bool
	}{
		{"monday", time.Date(2024, 9, 2, 8, 0, 0, 0, timeutil.MoscowTZ), Monday, true},
		{"saturday", time.Date(2024, 9, 7, 23, 59, 0, 0, timeutil.MoscowTZ), Saturday, true},
		{"sunday", time.Date(2024, 9, 8, 12, 0, 0, 0, timeutil.MoscowTZ), 0, false},
		// 2024-09-07 22:30 UTC is already sunday in Moscow
		{"zone of the clock decides", time.Date(2024, 9, 7, 22, 30, 0, 0, time.UTC).In(timeutil.MoscowTZ), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, ok := CurrentDayOfWeek(timeutil.FixedClock(tt.at))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, day)
			}
		})
	}
}

func TestCurrentTimeOfDay(t *testing.T) {
	clock := timeutil.FixedClock(time.Date(2024, 9, 4, 13, 45, 30, 0, timeutil.MoscowTZ))

	got := CurrentTimeOfDay(clock)

	assert.Equal(t, NewTimeOfDay(13, 45)+30, got)
	assert.Equal(t, "13:45", got.String())
}

func TestCompareTime(t *testing.T) {
	early, late := NewTimeOfDay(8, 0), NewTimeOfDay(9, 40)

	assert.Equal(t, -1, CompareTime(early, late))
	assert.Equal(t, 1, CompareTime(late, early))
	assert.Equal(t, 0, CompareTime(late, late))
}
