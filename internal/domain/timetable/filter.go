package timetable

// Select оставляет занятия недели с чётностью week для подгруппы subgroup.
// Проходят ячейки со знаком week или Any и с подгруппой subgroup или 0.
// Порядок сохраняется.
func Select(cells []Cell, week WeekSign, subgroup int) []Cell {
	out := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if c.WeekSign.Matches(week) && c.ForSubgroup(subgroup) {
			out = append(out, c)
		}
	}
	return out
}

// OnDay оставляет занятия указанного дня.
func OnDay(cells []Cell, day DayOfWeek) []Cell {
	out := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if c.Day == day {
			out = append(out, c)
		}
	}
	return out
}
