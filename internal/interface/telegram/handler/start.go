// Package handler contains Telegram update handlers.
// Each handler follows the pattern: receive update → call application layer → format response.
package handler

import (
	"context"

	"github.com/tversu/timing-bot/internal/application/command"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/internal/interface/telegram/presenter"
)

// Response contains the message to send back.
type Response struct {
	// Text is the message text (HTML formatted).
	Text string

	// Keyboard is a reply keyboard, a keyboard removal or nil.
	Keyboard any

	// ParseMode is the parse mode (HTML).
	ParseMode string
}

func htmlResponse(text string, keyboard any) *Response {
	return &Response{Text: text, Keyboard: keyboard, ParseMode: "HTML"}
}

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// /start, /reset, "change group" and every answer during registration.
// ══════════════════════════════════════════════════════════════════════════════

// Registrar runs the registration dialogue.
type Registrar interface {
	Restart(ctx context.Context, telegramID user.TelegramID) (command.RegistrationReply, error)
	Answer(ctx context.Context, telegramID user.TelegramID, text string) (command.RegistrationReply, error)
}

// StartHandler handles registration.
type StartHandler struct {
	registrar Registrar
	keyboards *presenter.KeyboardBuilder
	presenter *presenter.SchedulePresenter
}

// NewStartHandler creates a new StartHandler with dependencies.
func NewStartHandler(
	registrar Registrar,
	keyboards *presenter.KeyboardBuilder,
	schedule *presenter.SchedulePresenter,
) *StartHandler {
	return &StartHandler{
		registrar: registrar,
		keyboards: keyboards,
		presenter: schedule,
	}
}

// Restart begins registration from the faculty question.
func (h *StartHandler) Restart(ctx context.Context, telegramID int64) (*Response, error) {
	reply, err := h.registrar.Restart(ctx, user.TelegramID(telegramID))
	if err != nil {
		return nil, err
	}
	return h.render(reply), nil
}

// Answer applies a registration answer.
func (h *StartHandler) Answer(ctx context.Context, telegramID int64, text string) (*Response, error) {
	reply, err := h.registrar.Answer(ctx, user.TelegramID(telegramID), text)
	if err != nil {
		return nil, err
	}
	return h.render(reply), nil
}

func (h *StartHandler) render(reply command.RegistrationReply) *Response {
	if reply.Done() && reply.Profile != nil {
		return htmlResponse(h.presenter.Registered(*reply.Profile), h.keyboards.MainMenu())
	}
	return htmlResponse(
		h.presenter.Prompt(reply.Stage, reply.Rejected),
		h.keyboards.Options(reply.Stage, reply.Options),
	)
}
