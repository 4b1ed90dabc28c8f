package handler

import (
	"context"
	"fmt"

	"github.com/tversu/timing-bot/internal/application/query"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// MENU HANDLER
// Answers main menu buttons of a registered user.
// ══════════════════════════════════════════════════════════════════════════════

// TimingQueries is the part of the timing service the menu uses.
type TimingQueries interface {
	CurrentLesson(ctx context.Context, p user.Profile) (timetable.Cell, bool, error)
	NextLesson(ctx context.Context, p user.Profile) (timetable.Cell, bool, error)
	TodayLessons(ctx context.Context, p user.Profile) ([]timetable.Cell, error)
	TomorrowOrMondayLessons(ctx context.Context, p user.Profile) (timetable.DayOfWeek, []timetable.Cell, error)
	RemainingLessonsOfWeek(ctx context.Context, p user.Profile) (*query.DaySchedule, error)
	CurrentWeekSign(ctx context.Context, p user.Profile) (timetable.WeekSign, error)
}

// MenuHandler handles main menu buttons.
type MenuHandler struct {
	timing    TimingQueries
	keyboards *presenter.KeyboardBuilder
	presenter *presenter.SchedulePresenter
}

// NewMenuHandler creates a new MenuHandler with dependencies.
func NewMenuHandler(
	timing TimingQueries,
	keyboards *presenter.KeyboardBuilder,
	schedule *presenter.SchedulePresenter,
) *MenuHandler {
	return &MenuHandler{
		timing:    timing,
		keyboards: keyboards,
		presenter: schedule,
	}
}

// Handle answers one button. ButtonChangeGroup is routed to the StartHandler
// and is not accepted here.
func (h *MenuHandler) Handle(ctx context.Context, p user.Profile, button presenter.Button) (*Response, error) {
	text, err := h.answer(ctx, p, button)
	if err != nil {
		return nil, err
	}
	return htmlResponse(text, h.keyboards.MainMenu()), nil
}

// UseMenu reminds the user to use the keyboard.
func (h *MenuHandler) UseMenu() *Response {
	return htmlResponse(h.presenter.UseMenu(), h.keyboards.MainMenu())
}

func (h *MenuHandler) answer(ctx context.Context, p user.Profile, button presenter.Button) (string, error) {
	switch button {
	case presenter.ButtonCurrent:
		cell, found, err := h.timing.CurrentLesson(ctx, p)
		if err != nil {
			return "", err
		}
		return h.presenter.Current(cell, found), nil

	case presenter.ButtonNext:
		cell, found, err := h.timing.NextLesson(ctx, p)
		if err != nil {
			return "", err
		}
		return h.presenter.Next(cell, found), nil

	case presenter.ButtonToday:
		cells, err := h.timing.TodayLessons(ctx, p)
		if err != nil {
			return "", err
		}
		return h.presenter.Today(cells), nil

	case presenter.ButtonTomorrow:
		day, cells, err := h.timing.TomorrowOrMondayLessons(ctx, p)
		if err != nil {
			return "", err
		}
		return h.presenter.Day(day, cells), nil

	case presenter.ButtonRestOfWeek:
		schedule, err := h.timing.RemainingLessonsOfWeek(ctx, p)
		if err != nil {
			return "", err
		}
		return h.presenter.Week(schedule), nil

	case presenter.ButtonWeekSign:
		sign, err := h.timing.CurrentWeekSign(ctx, p)
		if err != nil {
			return "", err
		}
		return h.presenter.WeekSign(sign), nil

	default:
		return "", fmt.Errorf("menu: unsupported button %q", button)
	}
}
