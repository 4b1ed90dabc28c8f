package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tversu/timing-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TIME OF DAY
// ══════════════════════════════════════════════════════════════════════════════

// TimeOfDay - время суток в секундах от полуночи.
type TimeOfDay int

// NewTimeOfDay собирает время из часов и минут.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60)
}

// TimeOf возвращает время суток момента t в его часовом поясе.
func TimeOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// ParseTimeOfDay разбирает строки вида "08:30" и "08:30:00".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", shared.ErrInvalidTime, s)
	}

	limits := []int{24, 60, 60}
	values := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v >= limits[i] {
			return 0, fmt.Errorf("%w: %q", shared.ErrInvalidTime, s)
		}
		values[i] = v
	}

	return TimeOfDay(values[0]*3600 + values[1]*60 + values[2]), nil
}

// Hour возвращает часы.
func (t TimeOfDay) Hour() int { return int(t) / 3600 }

// Minute возвращает минуты.
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }

// Compare - трёхзначное сравнение: -1, 0 или 1.
func (t TimeOfDay) Compare(other TimeOfDay) int {
	switch {
	case t < other:
		return -1
	case t > other:
		return 1
	default:
		return 0
	}
}

// On возвращает момент времени t в дату day.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).
		Add(time.Duration(t) * time.Second)
}

// String форматирует время как "15:04".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// ══════════════════════════════════════════════════════════════════════════════
// WEEK SIGN
// ══════════════════════════════════════════════════════════════════════════════

// WeekSign - знак недели (числитель/знаменатель).
type WeekSign int

const (
	// WeekSignAny - занятие проходит каждую неделю.
	WeekSignAny WeekSign = iota
	// WeekSignOdd - только по нечётным неделям.
	WeekSignOdd
	// WeekSignEven - только по чётным неделям.
	WeekSignEven
)

// ParseWeekSign разбирает знак недели из внешнего источника.
func ParseWeekSign(s string) (WeekSign, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "all", "both":
		return WeekSignAny, nil
	case "odd", "plus", "+":
		return WeekSignOdd, nil
	case "even", "minus", "-":
		return WeekSignEven, nil
	default:
		return WeekSignAny, fmt.Errorf("%w: %q", shared.ErrInvalidWeekSign, s)
	}
}

// Matches сообщает, проходит ли занятие с этим знаком в неделю с чётностью target.
func (w WeekSign) Matches(target WeekSign) bool {
	return w == WeekSignAny || w == target
}

// Opposite возвращает противоположную чётность. Any остаётся Any.
func (w WeekSign) Opposite() WeekSign {
	switch w {
	case WeekSignOdd:
		return WeekSignEven
	case WeekSignEven:
		return WeekSignOdd
	default:
		return WeekSignAny
	}
}

// IsParity - true для Odd и Even.
func (w WeekSign) IsParity() bool {
	return w == WeekSignOdd || w == WeekSignEven
}

// String возвращает строковое представление.
func (w WeekSign) String() string {
	switch w {
	case WeekSignOdd:
		return "odd"
	case WeekSignEven:
		return "even"
	default:
		return "any"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DAY OF WEEK
// ══════════════════════════════════════════════════════════════════════════════

// DayOfWeek - учебный день, с понедельника по субботу.
type DayOfWeek int

const (
	Monday DayOfWeek = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Days - все учебные дни по порядку.
var Days = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var dayNames = map[DayOfWeek]string{
	Monday:    "monday",
	Tuesday:   "tuesday",
	Wednesday: "wednesday",
	Thursday:  "thursday",
	Friday:    "friday",
	Saturday:  "saturday",
}

// FromWeekday переводит time.Weekday в учебный день.
// Для воскресенья возвращает false.
func FromWeekday(wd time.Weekday) (DayOfWeek, bool) {
	if wd == time.Sunday {
		return 0, false
	}
	return DayOfWeek(wd), true
}

// DayOf возвращает учебный день для момента t.
func DayOf(t time.Time) (DayOfWeek, bool) {
	return FromWeekday(t.Weekday())
}

// ParseDayOfWeek разбирает день из внешнего источника: имя ("monday", "mon")
// или номер 1..6.
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if d := DayOfWeek(n); d.Valid() {
			return d, nil
		}
	}
	for d, name := range dayNames {
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", shared.ErrInvalidDay, s)
}

// Valid проверяет, что значение входит в перечисление.
func (d DayOfWeek) Valid() bool {
	return d >= Monday && d <= Saturday
}

// Next возвращает следующий учебный день. После субботы идёт понедельник.
func (d DayOfWeek) Next() DayOfWeek {
	if d == Saturday {
		return Monday
	}
	return d + 1
}

// Before сообщает, идёт ли d раньше other в неделе, начинающейся с понедельника.
func (d DayOfWeek) Before(other DayOfWeek) bool {
	return d < other
}

// Weekday возвращает соответствующий time.Weekday.
func (d DayOfWeek) Weekday() time.Weekday {
	return time.Weekday(d)
}

// Offset - число дней от понедельника.
func (d DayOfWeek) Offset() int {
	return int(d - Monday)
}

// String возвращает английское имя дня в нижнем регистре.
func (d DayOfWeek) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return "unknown"
}

// ══════════════════════════════════════════════════════════════════════════════
// COHORT
// ══════════════════════════════════════════════════════════════════════════════

// Cohort - пара (факультет, группа), у которой одно общее расписание.
type Cohort struct {
	Faculty string
	Group   string
}

// String возвращает "факультет/группа".
func (c Cohort) String() string {
	return c.Faculty + "/" + c.Group
}

// ══════════════════════════════════════════════════════════════════════════════
// CELL
// ══════════════════════════════════════════════════════════════════════════════

// Cell - одно занятие в недельной сетке группы.
type Cell struct {
	Day          DayOfWeek
	Start        TimeOfDay
	End          TimeOfDay
	Subject      string // полное название предмета
	SubjectShort string
	Teacher      string // после дедупликации может содержать несколько имён через ", "
	Room         string
	WeekSign     WeekSign
	Subgroup     int // 0 - для всей группы
}

// Validate проверяет инварианты ячейки.
func (c Cell) Validate() error {
	if !c.Day.Valid() {
		return fmt.Errorf("%w: day %d", shared.ErrInvalidCell, c.Day)
	}
	if c.Start > c.End {
		return fmt.Errorf("%w: start %s is after end %s", shared.ErrInvalidCell, c.Start, c.End)
	}
	if c.Subgroup < 0 {
		return fmt.Errorf("%w: subgroup %d", shared.ErrInvalidCell, c.Subgroup)
	}
	if strings.TrimSpace(c.Subject) == "" {
		return fmt.Errorf("%w: empty subject", shared.ErrInvalidCell)
	}
	return nil
}

// Contains сообщает, идёт ли занятие в момент now (границы включены).
func (c Cell) Contains(now TimeOfDay) bool {
	return c.Start.Compare(now) <= 0 && c.End.Compare(now) >= 0
}

// ForSubgroup сообщает, посещает ли занятие указанная подгруппа.
func (c Cell) ForSubgroup(subgroup int) bool {
	return c.Subgroup == 0 || c.Subgroup == subgroup
}

// Title возвращает сокращённое название, если оно есть.
func (c Cell) Title() string {
	if c.SubjectShort != "" {
		return c.SubjectShort
	}
	return c.Subject
}
