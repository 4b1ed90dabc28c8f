package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// Моки
// ──────────────────────────────────────────────────────────────────────────────

type feedMock struct{ mock.Mock }

func (m *feedMock) Cells(ctx context.Context, cohort timetable.Cohort) ([]timetable.Cell, error) {
	args := m.Called(ctx, cohort)
	cells, _ := args.Get(0).([]timetable.Cell)
	return cells, args.Error(1)
}

type weeksMock struct{ mock.Mock }

func (m *weeksMock) CurrentWeekSign(ctx context.Context, faculty string) (timetable.WeekSign, error) {
	args := m.Called(ctx, faculty)
	return args.Get(0).(timetable.WeekSign), args.Error(1)
}

func (m *weeksMock) NextWeekSign(ctx context.Context, faculty string) (timetable.WeekSign, error) {
	args := m.Called(ctx, faculty)
	return args.Get(0).(timetable.WeekSign), args.Error(1)
}

// 2 сентября 2024 - понедельник.
func at(day timetable.DayOfWeek, hour, minute int) timeutil.Clock {
	return timeutil.FixedClock(time.Date(2024, 9, 1+int(day), hour, minute, 0, 0, timeutil.MoscowTZ))
}

func sunday(hour int) timeutil.Clock {
	return timeutil.FixedClock(time.Date(2024, 9, 8, hour, 0, 0, 0, timeutil.MoscowTZ))
}

var profile = user.Profile{Faculty: "fpmk", Program: "pmi", Course: 2, Group: "22", Subgroup: 1}

func cell(day timetable.DayOfWeek, start, end, subject, teacher string) timetable.Cell {
	s, _ := timetable.ParseTimeOfDay(start)
	e, _ := timetable.ParseTimeOfDay(end)
	return timetable.Cell{Day: day, Start: s, End: e, Subject: subject, Teacher: teacher, Room: "4-201"}
}

func newService(t *testing.T, cells []timetable.Cell, clock timeutil.Clock) (*TimingService, *feedMock, *weeksMock) {
	t.Helper()
	feed := &feedMock{}
	feed.On("Cells", mock.Anything, profile.Cohort()).Return(cells, nil)

	weeks := &weeksMock{}
	weeks.On("CurrentWeekSign", mock.Anything, "fpmk").Return(timetable.WeekSignOdd, nil).Maybe()
	weeks.On("NextWeekSign", mock.Anything, "fpmk").Return(timetable.WeekSignEven, nil).Maybe()

	return NewTimingService(feed, weeks, clock), feed, weeks
}

// ──────────────────────────────────────────────────────────────────────────────
// CurrentLesson
// ──────────────────────────────────────────────────────────────────────────────

func TestCurrentLesson_InclusiveBoundaries(t *testing.T) {
	cells := []timetable.Cell{cell(timetable.Monday, "09:00", "10:30", "Algorithms", "Ivanov")}

	tests := []struct {
		name         string
		hour, minute int
		want         bool
	}{
		{"at start", 9, 0, true},
		{"at end", 10, 30, true},
		{"inside", 9, 45, true},
		{"before", 8, 59, false},
		{"after", 10, 31, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newService(t, cells, at(timetable.Monday, tt.hour, tt.minute))

			got, ok, err := svc.CurrentLesson(context.Background(), profile)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, "Algorithms", got.Subject)
			}
		})
	}
}

func TestCurrentLesson_MergesTeachers(t *testing.T) {
	a := cell(timetable.Monday, "08:00", "09:30", "Algorithms", "Ivanov")
	a.WeekSign = timetable.WeekSignOdd
	b := cell(timetable.Monday, "08:00", "09:30", "Algorithms", "Petrov")
	b.WeekSign = timetable.WeekSignOdd

	svc, _, _ := newService(t, []timetable.Cell{a, b}, at(timetable.Monday, 8, 30))

	got, ok, err := svc.CurrentLesson(context.Background(), profile)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ivanov, Petrov", got.Teacher)
}

func TestCurrentLesson_OverlapPicksFirstInScanOrder(t *testing.T) {
	cells := []timetable.Cell{
		cell(timetable.Monday, "09:00", "10:30", "Physics", "Orlov"),
		cell(timetable.Monday, "08:30", "11:00", "Chemistry", "Belov"),
	}
	svc, _, _ := newService(t, cells, at(timetable.Monday, 9, 15))

	got, ok, err := svc.CurrentLesson(context.Background(), profile)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Physics", got.Subject)
}

func TestCurrentLesson_RespectsParityAndSubgroup(t *testing.T) {
	evenOnly := cell(timetable.Monday, "09:00", "10:30", "Even", "")
	evenOnly.WeekSign = timetable.WeekSignEven
	otherSubgroup := cell(timetable.Monday, "09:00", "10:30", "Other", "")
	otherSubgroup.Subgroup = 2

	svc, _, _ := newService(t, []timetable.Cell{evenOnly, otherSubgroup}, at(timetable.Monday, 9, 30))

	_, ok, err := svc.CurrentLesson(context.Background(), profile)

	require.NoError(t, err)
	assert.False(t, ok)
}

// ──────────────────────────────────────────────────────────────────────────────
// NextLesson
// ──────────────────────────────────────────────────────────────────────────────

func TestNextLesson_PicksSoonestFuture(t *testing.T) {
	cells := []timetable.Cell{
		cell(timetable.Monday, "14:00", "15:30", "Late", ""),
		cell(timetable.Monday, "10:00", "11:30", "Early", ""),
		cell(timetable.Monday, "12:00", "13:30", "Noon", ""),
		cell(timetable.Tuesday, "11:30", "13:00", "Tomorrow", ""),
	}
	svc, _, _ := newService(t, cells, at(timetable.Monday, 11, 0))

	got, ok, err := svc.NextLesson(context.Background(), profile)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Noon", got.Subject)
}

func TestNextLesson_NoneLeftToday(t *testing.T) {
	cells := []timetable.Cell{cell(timetable.Monday, "10:00", "11:30", "Early", "")}
	svc, _, _ := newService(t, cells, at(timetable.Monday, 10, 0))

	_, ok, err := svc.NextLesson(context.Background(), profile)

	require.NoError(t, err)
	assert.False(t, ok)
}

// ──────────────────────────────────────────────────────────────────────────────
// TodayLessons / TomorrowOrMondayLessons
// ──────────────────────────────────────────────────────────────────────────────

func TestTodayLessons_FeedOrder(t *testing.T) {
	cells := []timetable.Cell{
		cell(timetable.Wednesday, "12:00", "13:30", "B", ""),
		cell(timetable.Monday, "09:00", "10:30", "X", ""),
		cell(timetable.Wednesday, "09:00", "10:30", "A", ""),
	}
	svc, _, _ := newService(t, cells, at(timetable.Wednesday, 7, 0))

	got, err := svc.TodayLessons(context.Background(), profile)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Subject)
	assert.Equal(t, "A", got[1].Subject)
}

func TestTomorrowOrMondayLessons_SaturdayUsesNextWeekParity(t *testing.T) {
	odd := cell(timetable.Monday, "09:00", "10:30", "OddMonday", "")
	odd.WeekSign = timetable.WeekSignOdd
	even := cell(timetable.Monday, "09:00", "10:30", "EvenMonday", "")
	even.WeekSign = timetable.WeekSignEven

	svc, _, weeks := newService(t, []timetable.Cell{odd, even}, at(timetable.Saturday, 18, 0))

	day, got, err := svc.TomorrowOrMondayLessons(context.Background(), profile)

	require.NoError(t, err)
	assert.Equal(t, timetable.Monday, day)
	require.Len(t, got, 1)
	assert.Equal(t, "EvenMonday", got[0].Subject)
	weeks.AssertCalled(t, "NextWeekSign", mock.Anything, "fpmk")
	weeks.AssertNotCalled(t, "CurrentWeekSign", mock.Anything, mock.Anything)
}

func TestTomorrowOrMondayLessons_WeekdayUsesCurrentParity(t *testing.T) {
	odd := cell(timetable.Thursday, "09:00", "10:30", "OddThursday", "")
	odd.WeekSign = timetable.WeekSignOdd
	even := cell(timetable.Thursday, "09:00", "10:30", "EvenThursday", "")
	even.WeekSign = timetable.WeekSignEven

	svc, _, weeks := newService(t, []timetable.Cell{odd, even}, at(timetable.Wednesday, 20, 0))

	day, got, err := svc.TomorrowOrMondayLessons(context.Background(), profile)

	require.NoError(t, err)
	assert.Equal(t, timetable.Thursday, day)
	require.Len(t, got, 1)
	assert.Equal(t, "OddThursday", got[0].Subject)
	weeks.AssertNotCalled(t, "NextWeekSign", mock.Anything, mock.Anything)
}

// ──────────────────────────────────────────────────────────────────────────────
// RemainingLessonsOfWeek
// ──────────────────────────────────────────────────────────────────────────────

func TestRemainingLessonsOfWeek_GroupsInScanOrder(t *testing.T) {
	cells := []timetable.Cell{
		cell(timetable.Wednesday, "09:00", "10:30", "W1", ""),
		cell(timetable.Monday, "09:00", "10:30", "M1", ""),
		cell(timetable.Friday, "09:00", "10:30", "F1", ""),
		cell(timetable.Wednesday, "11:00", "12:30", "W2", ""),
	}
	svc, _, _ := newService(t, cells, at(timetable.Wednesday, 8, 0))

	got, err := svc.RemainingLessonsOfWeek(context.Background(), profile)

	require.NoError(t, err)
	assert.Equal(t, []timetable.DayOfWeek{timetable.Wednesday, timetable.Friday}, got.Days())
	require.Len(t, got.Lessons(timetable.Wednesday), 2)
	assert.Equal(t, "W1", got.Lessons(timetable.Wednesday)[0].Subject)
	assert.Equal(t, "W2", got.Lessons(timetable.Wednesday)[1].Subject)
	assert.Empty(t, got.Lessons(timetable.Monday))
	assert.Equal(t, 3, got.Count())
}

func TestWeekLessons_NextWeek(t *testing.T) {
	odd := cell(timetable.Tuesday, "09:00", "10:30", "Odd", "")
	odd.WeekSign = timetable.WeekSignOdd
	even := cell(timetable.Friday, "09:00", "10:30", "Even", "")
	even.WeekSign = timetable.WeekSignEven
	svc, _, _ := newService(t, []timetable.Cell{odd, even}, at(timetable.Wednesday, 8, 0))

	got, err := svc.WeekLessons(context.Background(), profile, true)

	require.NoError(t, err)
	assert.Equal(t, []timetable.DayOfWeek{timetable.Friday}, got.Days())
}

// ──────────────────────────────────────────────────────────────────────────────
// Воскресенье
// ──────────────────────────────────────────────────────────────────────────────

func TestSunday_DayScopedQueriesAreEmpty(t *testing.T) {
	cells := []timetable.Cell{
		cell(timetable.Saturday, "00:00", "23:59", "Saturday", ""),
		cell(timetable.Monday, "09:00", "10:30", "Monday", ""),
	}
	svc, _, _ := newService(t, cells, sunday(12))
	ctx := context.Background()

	_, ok, err := svc.CurrentLesson(ctx, profile)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.NextLesson(ctx, profile)
	require.NoError(t, err)
	assert.False(t, ok)

	today, err := svc.TodayLessons(ctx, profile)
	require.NoError(t, err)
	assert.Empty(t, today)

	rest, err := svc.RemainingLessonsOfWeek(ctx, profile)
	require.NoError(t, err)
	assert.True(t, rest.IsEmpty())

	day, monday, err := svc.TomorrowOrMondayLessons(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, timetable.Monday, day)
	require.Len(t, monday, 1)
	assert.Equal(t, "Monday", monday[0].Subject)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ошибки
// ──────────────────────────────────────────────────────────────────────────────

func TestErrors_FeedNotFoundPropagates(t *testing.T) {
	feed := &feedMock{}
	feed.On("Cells", mock.Anything, mock.Anything).Return(nil, shared.ErrCohortNotFound)
	svc := NewTimingService(feed, &weeksMock{}, at(timetable.Monday, 9, 0))

	_, _, err := svc.CurrentLesson(context.Background(), profile)

	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestErrors_MissingAnchorIsConfiguration(t *testing.T) {
	feed := &feedMock{}
	feed.On("Cells", mock.Anything, mock.Anything).Return([]timetable.Cell{}, nil)
	weeks := &weeksMock{}
	weeks.On("CurrentWeekSign", mock.Anything, "fpmk").Return(timetable.WeekSignAny, shared.ErrAnchorNotConfigured)
	svc := NewTimingService(feed, weeks, at(timetable.Monday, 9, 0))

	_, err := svc.TodayLessons(context.Background(), profile)

	require.Error(t, err)
	assert.True(t, shared.IsConfiguration(err))
}

func TestEmptyFeedIsNotAnError(t *testing.T) {
	svc, _, _ := newService(t, []timetable.Cell{}, at(timetable.Tuesday, 9, 0))

	_, ok, err := svc.CurrentLesson(context.Background(), profile)
	require.NoError(t, err)
	assert.False(t, ok)

	rest, err := svc.RemainingLessonsOfWeek(context.Background(), profile)
	require.NoError(t, err)
	assert.True(t, rest.IsEmpty())
}

func TestFeedIsFetchedOnEveryCall(t *testing.T) {
	cells := []timetable.Cell{cell(timetable.Monday, "09:00", "10:30", "Algorithms", "Ivanov")}
	svc, feed, _ := newService(t, cells, at(timetable.Monday, 9, 0))

	_, _ = svc.TodayLessons(context.Background(), profile)
	_, _ = svc.TodayLessons(context.Background(), profile)

	feed.AssertNumberOfCalls(t, "Cells", 2)
}
