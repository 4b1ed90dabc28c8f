// Package calendar определяет чётность учебных недель.
//
// Для каждого факультета хранится якорь: дата внутри недели с известной
// чётностью. Чётность любой другой недели вычисляется по числу целых
// недель от якоря: чётное число недель - тот же знак, нечётное - противоположный.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// Anchor привязывает чётность к конкретной неделе факультета.
type Anchor struct {
	Faculty   string
	WeekStart time.Time // любой день недели с известной чётностью
	Sign      timetable.WeekSign
	UpdatedAt time.Time
}

// NewAnchor создаёт и проверяет якорь.
func NewAnchor(faculty string, weekStart time.Time, sign timetable.WeekSign) (Anchor, error) {
	a := Anchor{
		Faculty:   strings.TrimSpace(faculty),
		WeekStart: timeutil.StartOfWeek(weekStart),
		Sign:      sign,
	}
	return a, a.Validate()
}

// Validate проверяет инварианты якоря.
func (a Anchor) Validate() error {
	if a.Faculty == "" {
		return fmt.Errorf("%w: empty faculty", shared.ErrInvalidAnchor)
	}
	if a.WeekStart.IsZero() {
		return fmt.Errorf("%w: empty week start", shared.ErrInvalidAnchor)
	}
	if !a.Sign.IsParity() {
		return shared.ErrInvalidAnchor
	}
	return nil
}

// SignAt возвращает чётность недели, в которую попадает момент t.
// Работает и для дат раньше якоря.
func (a Anchor) SignAt(t time.Time) timetable.WeekSign {
	weeks := timeutil.WeeksBetween(a.WeekStart, t)
	if weeks%2 == 0 {
		return a.Sign
	}
	return a.Sign.Opposite()
}
