package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/internal/infrastructure/external/telegram"
	"github.com/tversu/timing-bot/internal/interface/telegram/handler"
	"github.com/tversu/timing-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Commands go to their handlers. Any other text goes to the registration
// dialogue until the user is registered, and to the main menu afterwards.
// ══════════════════════════════════════════════════════════════════════════════

// Sender sends messages to Telegram.
type Sender interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
}

// Router dispatches messages to handlers.
type Router struct {
	users     user.Repository
	start     *handler.StartHandler
	menu      *handler.MenuHandler
	help      *handler.HelpHandler
	presenter *presenter.SchedulePresenter
	sender    Sender
}

// NewRouter creates a router.
func NewRouter(
	users user.Repository,
	start *handler.StartHandler,
	menu *handler.MenuHandler,
	help *handler.HelpHandler,
	schedule *presenter.SchedulePresenter,
	sender Sender,
) *Router {
	return &Router{
		users:     users,
		start:     start,
		menu:      menu,
		help:      help,
		presenter: schedule,
		sender:    sender,
	}
}

// Action names the message for logs and metrics before it is handled.
func Action(msg *telegram.Message) string {
	if cmd := telegram.ExtractCommand(msg); cmd != "" {
		switch cmd {
		case "start", "reset", "help":
			return cmd
		default:
			return "unknown_command"
		}
	}
	if b, ok := presenter.ParseButton(msg.Text); ok {
		return b.Action()
	}
	return "message"
}

// Route handles one message and sends the reply. When the action fails the
// user still gets an explanation, and the error is returned for logging.
func (r *Router) Route(ctx context.Context, msg *telegram.Message) error {
	resp, err := r.dispatch(ctx, msg)
	if err != nil {
		resp = &handler.Response{Text: r.presenter.ErrorMessage(err), ParseMode: "HTML"}
	}
	if resp == nil {
		return err
	}

	if _, sendErr := r.sender.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        resp.Text,
		ParseMode:   resp.ParseMode,
		ReplyMarkup: resp.Keyboard,
	}); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send reply: %w", sendErr))
	}
	return err
}

func (r *Router) dispatch(ctx context.Context, msg *telegram.Message) (*handler.Response, error) {
	telegramID := msg.From.ID

	switch telegram.ExtractCommand(msg) {
	case "start", "reset":
		return r.start.Restart(ctx, telegramID)
	case "help":
		return r.help.Handle(r.isRegistered(ctx, telegramID)), nil
	}

	u, err := r.users.GetByTelegramID(ctx, user.TelegramID(telegramID))
	if errors.Is(err, shared.ErrUserNotFound) {
		return r.start.Restart(ctx, telegramID)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	profile, err := u.Profile()
	if err != nil {
		return r.start.Answer(ctx, telegramID, msg.Text)
	}

	button, ok := presenter.ParseButton(msg.Text)
	switch {
	case !ok:
		return r.menu.UseMenu(), nil
	case button == presenter.ButtonChangeGroup:
		return r.start.Restart(ctx, telegramID)
	default:
		return r.menu.Handle(ctx, profile, button)
	}
}

func (r *Router) isRegistered(ctx context.Context, telegramID int64) bool {
	u, err := r.users.GetByTelegramID(ctx, user.TelegramID(telegramID))
	return err == nil && u.Stage() == user.StageRegistered
}
