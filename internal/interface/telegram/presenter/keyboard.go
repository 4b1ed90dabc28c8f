// Package presenter formats data for Telegram display.
// Presenters turn timetable cells and registration steps into Russian text
// and reply keyboards.
package presenter

import (
	"strings"

	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/internal/infrastructure/external/telegram"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN MENU BUTTONS
// The menu is a reply keyboard: pressing a button sends its label as text,
// so the label is also the routing key.
// ══════════════════════════════════════════════════════════════════════════════

// Button is a main menu action.
type Button string

const (
	ButtonCurrent     Button = "📍 Текущая пара"
	ButtonNext        Button = "⏭ Следующая пара"
	ButtonToday       Button = "📅 Сегодня"
	ButtonTomorrow    Button = "🌅 Завтра"
	ButtonRestOfWeek  Button = "🗓 До конца недели"
	ButtonWeekSign    Button = "🔢 Какая неделя?"
	ButtonChangeGroup Button = "⚙️ Сменить группу"
)

var menuLayout = [][]Button{
	{ButtonCurrent, ButtonNext},
	{ButtonToday, ButtonTomorrow},
	{ButtonRestOfWeek},
	{ButtonWeekSign, ButtonChangeGroup},
}

var buttonActions = map[Button]string{
	ButtonCurrent:     "current",
	ButtonNext:        "next",
	ButtonToday:       "today",
	ButtonTomorrow:    "tomorrow",
	ButtonRestOfWeek:  "rest_of_week",
	ButtonWeekSign:    "week_sign",
	ButtonChangeGroup: "change_group",
}

// Action is the metric and log name of the button.
func (b Button) Action() string {
	return buttonActions[b]
}

// ParseButton maps a message text to a menu button.
func ParseButton(text string) (Button, bool) {
	text = strings.TrimSpace(text)
	for _, row := range menuLayout {
		for _, b := range row {
			if string(b) == text {
				return b, true
			}
		}
	}
	return "", false
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARD BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// KeyboardBuilder builds reply keyboards for handlers.
type KeyboardBuilder struct{}

// NewKeyboardBuilder creates a new KeyboardBuilder.
func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// MainMenu creates the main menu keyboard shown to registered users.
func (b *KeyboardBuilder) MainMenu() *telegram.ReplyKeyboardMarkup {
	rows := make([][]telegram.KeyboardButton, 0, len(menuLayout))
	for _, row := range menuLayout {
		buttons := make([]telegram.KeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, telegram.KeyboardButton{Text: string(btn)})
		}
		rows = append(rows, buttons)
	}
	return &telegram.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

// Options creates a keyboard with registration answers for the given step.
// Programs have long names and get a row each.
func (b *KeyboardBuilder) Options(stage user.Stage, options []string) any {
	if len(options) == 0 {
		return &telegram.ReplyKeyboardRemove{RemoveKeyboard: true}
	}
	columns := 2
	if stage == user.StageChoosingProgram {
		columns = 1
	}
	return Grid(options, columns)
}

// Grid lays items out row by row, columns per row.
func Grid(items []string, columns int) *telegram.ReplyKeyboardMarkup {
	if columns < 1 {
		columns = 1
	}
	rows := make([][]telegram.KeyboardButton, 0, (len(items)+columns-1)/columns)
	for i := 0; i < len(items); i += columns {
		end := min(i+columns, len(items))
		row := make([]telegram.KeyboardButton, 0, end-i)
		for _, item := range items[i:end] {
			row = append(row, telegram.KeyboardButton{Text: item})
		}
		rows = append(rows, row)
	}
	return &telegram.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true, OneTimeKeyboard: true}
}
