// Package timeutil provides clock and calendar helpers for the bot.
// All timetable computations run in the university's local zone (Europe/Moscow
// by default), so every helper takes the location from the time it is given.
package timeutil

import (
	"fmt"
	"time"
)

// MoscowTZ is the fallback zone (UTC+3, no DST since 2014) used when the
// tz database is not available in the container.
var MoscowTZ = time.FixedZone("Europe/Moscow", 3*60*60)

// LoadLocation resolves a zone name, falling back to MoscowTZ for the
// Moscow zone when tzdata is missing.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return MoscowTZ, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == "Europe/Moscow" {
			return MoscowTZ, nil
		}
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}

// Clock abstracts the wall clock so the timetable engine can be tested with
// fixed instants.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock creates a clock reporting local time in loc.
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = MoscowTZ
	}
	return SystemClock{Location: loc}
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// Date creates midnight of the given date in loc.
func Date(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// StartOfDay returns 00:00:00 of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns Monday 00:00:00 of t's ISO week in t's location.
func StartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(t.AddDate(0, 0, -(weekday - 1)))
}

// WeeksBetween returns the number of whole ISO weeks from the week of from
// to the week of to. The result is negative when to is in an earlier week.
func WeeksBetween(from, to time.Time) int {
	a := StartOfWeek(from)
	b := StartOfWeek(to.In(from.Location()))
	// Calendar-day arithmetic keeps DST shifts out of the count.
	days := daysFromCivil(b.Year(), b.Month(), b.Day()) - daysFromCivil(a.Year(), a.Month(), a.Day())
	return days / 7
}

// daysFromCivil counts days since 1970-01-01 for a proleptic Gregorian date.
func daysFromCivil(y int, m time.Month, d int) int {
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// SecondsOfDay returns the number of seconds elapsed since local midnight.
func SecondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatRussianDate is the Russian date format (DD.MM.YYYY).
	FormatRussianDate = "02.01.2006"
)

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, loc)
}

// MonthNameRuGenitive returns the Russian month name in genitive case
// ("5 марта").
func MonthNameRuGenitive(m time.Month) string {
	names := []string{
		"", "января", "февраля", "марта", "апреля", "мая", "июня",
		"июля", "августа", "сентября", "октября", "ноября", "декабря",
	}
	if m >= 1 && m <= 12 {
		return names[m]
	}
	return ""
}
