package query

import "github.com/tversu/timing-bot/internal/domain/timetable"

// DaySchedule - упорядоченное отображение "день → занятия".
// Дни хранятся в порядке добавления, а не с понедельника.
type DaySchedule struct {
	days    []timetable.DayOfWeek
	lessons map[timetable.DayOfWeek][]timetable.Cell
}

// NewDaySchedule создаёт пустое расписание.
func NewDaySchedule() *DaySchedule {
	return &DaySchedule{lessons: make(map[timetable.DayOfWeek][]timetable.Cell)}
}

// Add добавляет занятие. Новый день встаёт в конец списка дней.
func (d *DaySchedule) Add(c timetable.Cell) {
	if _, ok := d.lessons[c.Day]; !ok {
		d.days = append(d.days, c.Day)
	}
	d.lessons[c.Day] = append(d.lessons[c.Day], c)
}

// Days возвращает дни в порядке добавления.
func (d *DaySchedule) Days() []timetable.DayOfWeek {
	out := make([]timetable.DayOfWeek, len(d.days))
	copy(out, d.days)
	return out
}

// Lessons возвращает занятия дня.
func (d *DaySchedule) Lessons(day timetable.DayOfWeek) []timetable.Cell {
	return d.lessons[day]
}

// Len возвращает число дней.
func (d *DaySchedule) Len() int {
	return len(d.days)
}

// IsEmpty сообщает, что занятий нет.
func (d *DaySchedule) IsEmpty() bool {
	return len(d.days) == 0
}

// Count возвращает общее число занятий.
func (d *DaySchedule) Count() int {
	n := 0
	for _, cells := range d.lessons {
		n += len(cells)
	}
	return n
}
