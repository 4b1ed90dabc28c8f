package timetable

import "github.com/tversu/timing-bot/pkg/timeutil"

// CurrentDayOfWeek возвращает сегодняшний учебный день по часам clock.
// В воскресенье второе значение false.
func CurrentDayOfWeek(clock timeutil.Clock) (DayOfWeek, bool) {
	return DayOf(clock.Now())
}

// CurrentTimeOfDay возвращает текущее время суток с точностью до секунды.
func CurrentTimeOfDay(clock timeutil.Clock) TimeOfDay {
	return TimeOf(clock.Now())
}

// CompareTime сравнивает два времени суток: -1, 0 или 1.
func CompareTime(a, b TimeOfDay) int {
	return a.Compare(b)
}
