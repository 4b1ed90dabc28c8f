// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TIMING SERVICE
// Движок расписания: по профилю пользователя отвечает, какое занятие идёт
// сейчас, какое следующее и что осталось на неделе.
//
// Каждый вызов загружает сырые ячейки группы заново, один раз прогоняет
// дедупликацию и фильтры и ничего не хранит между вызовами.
// ══════════════════════════════════════════════════════════════════════════════

// WeekSignResolver определяет чётность текущей и следующей недели факультета.
type WeekSignResolver interface {
	CurrentWeekSign(ctx context.Context, faculty string) (timetable.WeekSign, error)
	NextWeekSign(ctx context.Context, faculty string) (timetable.WeekSign, error)
}

// TimingService обрабатывает запросы о занятиях.
type TimingService struct {
	feed  timetable.Feed
	weeks WeekSignResolver
	clock timeutil.Clock
}

// NewTimingService создаёт движок расписания.
func NewTimingService(feed timetable.Feed, weeks WeekSignResolver, clock timeutil.Clock) *TimingService {
	return &TimingService{feed: feed, weeks: weeks, clock: clock}
}

// CurrentLesson возвращает занятие, которое идёт сейчас: первое из сегодняшних,
// для которого начало <= сейчас <= конец. Если в данных есть пересекающиеся
// занятия одной подгруппы, побеждает первое в порядке источника.
func (s *TimingService) CurrentLesson(ctx context.Context, p user.Profile) (timetable.Cell, bool, error) {
	now := s.snapshot()
	cells, err := s.todayLessons(ctx, p, now)
	if err != nil {
		return timetable.Cell{}, false, err
	}

	at := timetable.CurrentTimeOfDay(now)
	for _, c := range cells {
		if c.Contains(at) {
			return c, true, nil
		}
	}
	return timetable.Cell{}, false, nil
}

// NextLesson возвращает ближайшее сегодняшнее занятие, которое ещё не началось.
// При одинаковом начале выигрывает первое в порядке источника.
func (s *TimingService) NextLesson(ctx context.Context, p user.Profile) (timetable.Cell, bool, error) {
	now := s.snapshot()
	cells, err := s.todayLessons(ctx, p, now)
	if err != nil {
		return timetable.Cell{}, false, err
	}

	at := timetable.CurrentTimeOfDay(now)
	var (
		next  timetable.Cell
		found bool
	)
	for _, c := range cells {
		if timetable.CompareTime(c.Start, at) <= 0 {
			continue
		}
		if !found || timetable.CompareTime(c.Start, next.Start) < 0 {
			next, found = c, true
		}
	}
	return next, found, nil
}

// TodayLessons возвращает все сегодняшние занятия в порядке источника.
// В воскресенье список пуст.
func (s *TimingService) TodayLessons(ctx context.Context, p user.Profile) ([]timetable.Cell, error) {
	return s.todayLessons(ctx, p, s.clock)
}

// TomorrowOrMondayLessons возвращает занятия следующего учебного дня.
// В субботу и воскресенье это понедельник следующей недели с её чётностью,
// в остальные дни - завтрашний день текущей недели.
func (s *TimingService) TomorrowOrMondayLessons(ctx context.Context, p user.Profile) (timetable.DayOfWeek, []timetable.Cell, error) {
	today, ok := timetable.CurrentDayOfWeek(s.clock)

	target, nextWeek := timetable.Monday, true
	if ok && today != timetable.Saturday {
		target, nextWeek = today.Next(), false
	}

	cells, err := s.weekLessons(ctx, p, nextWeek)
	if err != nil {
		return target, nil, err
	}
	return target, timetable.OnDay(cells, target), nil
}

// RemainingLessonsOfWeek возвращает занятия с сегодняшнего дня по субботу,
// сгруппированные по дням. Дни идут в порядке первого появления в источнике.
// В воскресенье результат пуст.
func (s *TimingService) RemainingLessonsOfWeek(ctx context.Context, p user.Profile) (*DaySchedule, error) {
	today, ok := timetable.CurrentDayOfWeek(s.clock)

	cells, err := s.weekLessons(ctx, p, false)
	if err != nil {
		return nil, err
	}

	schedule := NewDaySchedule()
	if !ok {
		return schedule, nil
	}
	for _, c := range cells {
		if !c.Day.Before(today) {
			schedule.Add(c)
		}
	}
	return schedule, nil
}

// WeekLessons возвращает занятия всей текущей (или следующей) недели,
// сгруппированные по дням в порядке источника.
func (s *TimingService) WeekLessons(ctx context.Context, p user.Profile, nextWeek bool) (*DaySchedule, error) {
	cells, err := s.weekLessons(ctx, p, nextWeek)
	if err != nil {
		return nil, err
	}

	schedule := NewDaySchedule()
	for _, c := range cells {
		schedule.Add(c)
	}
	return schedule, nil
}

// CurrentWeekSign возвращает чётность текущей недели факультета пользователя.
func (s *TimingService) CurrentWeekSign(ctx context.Context, p user.Profile) (timetable.WeekSign, error) {
	return s.weeks.CurrentWeekSign(ctx, p.Faculty)
}

// ──────────────────────────────────────────────────────────────────────────────
// Конвейер фильтров
// ──────────────────────────────────────────────────────────────────────────────

// snapshot фиксирует текущий момент, чтобы день и время брались из одного показания часов.
func (s *TimingService) snapshot() timeutil.Clock {
	return timeutil.FixedClock(s.clock.Now())
}

func (s *TimingService) todayLessons(ctx context.Context, p user.Profile, now timeutil.Clock) ([]timetable.Cell, error) {
	cells, err := s.weekLessons(ctx, p, false)
	if err != nil {
		return nil, err
	}

	today, ok := timetable.CurrentDayOfWeek(now)
	if !ok {
		return []timetable.Cell{}, nil
	}
	return timetable.OnDay(cells, today), nil
}

// weekLessons: загрузка → дедупликация → чётность → подгруппа.
func (s *TimingService) weekLessons(ctx context.Context, p user.Profile, nextWeek bool) ([]timetable.Cell, error) {
	cohort := p.Cohort()

	raw, err := s.feed.Cells(ctx, cohort)
	if err != nil {
		return nil, fmt.Errorf("fetch cells for %s: %w", cohort, err)
	}
	cells := timetable.Dedup(raw)

	var sign timetable.WeekSign
	if nextWeek {
		sign, err = s.weeks.NextWeekSign(ctx, p.Faculty)
	} else {
		sign, err = s.weeks.CurrentWeekSign(ctx, p.Faculty)
	}
	if err != nil {
		return nil, err
	}

	return timetable.Select(cells, sign, p.Subgroup), nil
}
