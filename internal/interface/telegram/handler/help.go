package handler

import (
	"github.com/tversu/timing-bot/internal/interface/telegram/presenter"
)

// HelpHandler handles /help.
type HelpHandler struct {
	keyboards *presenter.KeyboardBuilder
	presenter *presenter.SchedulePresenter
}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler(keyboards *presenter.KeyboardBuilder, schedule *presenter.SchedulePresenter) *HelpHandler {
	return &HelpHandler{keyboards: keyboards, presenter: schedule}
}

// Handle returns the help text. The menu keyboard is attached only for
// registered users, the others are still answering registration questions.
func (h *HelpHandler) Handle(registered bool) *Response {
	var keyboard any
	if registered {
		keyboard = h.keyboards.MainMenu()
	}
	return htmlResponse(h.presenter.Help(), keyboard)
}
