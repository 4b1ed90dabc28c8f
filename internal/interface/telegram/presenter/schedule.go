package presenter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tversu/timing-bot/internal/application/query"
	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOCALIZED NAMES
// ══════════════════════════════════════════════════════════════════════════════

var dayNominative = map[timetable.DayOfWeek]string{
	timetable.Monday:    "понедельник",
	timetable.Tuesday:   "вторник",
	timetable.Wednesday: "среда",
	timetable.Thursday:  "четверг",
	timetable.Friday:    "пятница",
	timetable.Saturday:  "суббота",
}

var dayAccusative = map[timetable.DayOfWeek]string{
	timetable.Monday:    "понедельник",
	timetable.Tuesday:   "вторник",
	timetable.Wednesday: "среду",
	timetable.Thursday:  "четверг",
	timetable.Friday:    "пятницу",
	timetable.Saturday:  "субботу",
}

// DayName returns the nominative Russian name: "среда".
func DayName(d timetable.DayOfWeek) string {
	return dayNominative[d]
}

// DayNameAccusative returns the accusative form used after "в": "в среду".
func DayNameAccusative(d timetable.DayOfWeek) string {
	return dayAccusative[d]
}

// WeekSignName returns the name of a week parity.
func WeekSignName(w timetable.WeekSign) string {
	switch w {
	case timetable.WeekSignOdd:
		return "нечётная"
	case timetable.WeekSignEven:
		return "чётная"
	default:
		return "каждая"
	}
}

// Capitalize upper-cases the first letter.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULE PRESENTER
// ══════════════════════════════════════════════════════════════════════════════

// SchedulePresenter formats timing answers as HTML messages.
type SchedulePresenter struct{}

// NewSchedulePresenter creates a new SchedulePresenter.
func NewSchedulePresenter() *SchedulePresenter {
	return &SchedulePresenter{}
}

// LessonLong is the detailed form of a cell: subject, time, room, teachers
// and, for lessons that alternate, the week parity.
func (p *SchedulePresenter) LessonLong(c timetable.Cell) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", escapeHTML(c.Subject))
	fmt.Fprintf(&sb, "🕘 %s - %s", c.Start, c.End)
	if c.Room != "" {
		fmt.Fprintf(&sb, "\n🚪 %s", escapeHTML(c.Room))
	}
	if c.Teacher != "" {
		fmt.Fprintf(&sb, "\n👤 %s", escapeHTML(c.Teacher))
	}
	if c.Subgroup > 0 {
		fmt.Fprintf(&sb, "\n👥 %d подгруппа", c.Subgroup)
	}
	if c.WeekSign.IsParity() {
		fmt.Fprintf(&sb, "\n🔢 %s неделя", Capitalize(WeekSignName(c.WeekSign)))
	}
	return sb.String()
}

// LessonShort is one line of a day listing.
func (p *SchedulePresenter) LessonShort(c timetable.Cell) string {
	line := fmt.Sprintf("%s - %s  %s", c.Start, c.End, escapeHTML(c.Title()))
	if c.Room != "" {
		line += fmt.Sprintf(" (%s)", escapeHTML(c.Room))
	}
	return line
}

// Current formats the answer to "current lesson".
func (p *SchedulePresenter) Current(c timetable.Cell, found bool) string {
	if !found {
		return "☕️ Сейчас пары нет."
	}
	return "📍 <b>Сейчас идёт:</b>\n\n" + p.LessonLong(c)
}

// Next formats the answer to "next lesson".
func (p *SchedulePresenter) Next(c timetable.Cell, found bool) string {
	if !found {
		return "🎉 Сегодня больше пар нет."
	}
	return "⏭ <b>Следующая пара:</b>\n\n" + p.LessonLong(c)
}

// Today formats today's lessons.
func (p *SchedulePresenter) Today(cells []timetable.Cell) string {
	if len(cells) == 0 {
		return "🎉 Сегодня пар нет."
	}
	return "📅 <b>Сегодня:</b>\n\n" + p.lessonList(cells)
}

// Day formats lessons of the next study day.
func (p *SchedulePresenter) Day(day timetable.DayOfWeek, cells []timetable.Cell) string {
	if len(cells) == 0 {
		return fmt.Sprintf("🎉 В %s пар нет.", DayNameAccusative(day))
	}
	return fmt.Sprintf("📅 <b>%s:</b>\n\n%s", Capitalize(DayName(day)), p.lessonList(cells))
}

// Week formats lessons grouped by day.
func (p *SchedulePresenter) Week(schedule *query.DaySchedule) string {
	if schedule == nil || schedule.IsEmpty() {
		return "🎉 До конца недели пар нет."
	}
	blocks := make([]string, 0, schedule.Len())
	for _, day := range schedule.Days() {
		blocks = append(blocks, fmt.Sprintf("<b>%s</b>\n%s", Capitalize(DayName(day)), p.lessonList(schedule.Lessons(day))))
	}
	return strings.Join(blocks, "\n\n")
}

// WeekSign formats the parity of the current week.
func (p *SchedulePresenter) WeekSign(w timetable.WeekSign) string {
	return fmt.Sprintf("🔢 Сейчас <b>%s</b> неделя.", WeekSignName(w))
}

func (p *SchedulePresenter) lessonList(cells []timetable.Cell) string {
	lines := make([]string, len(cells))
	for i, c := range cells {
		lines[i] = p.LessonShort(c)
	}
	return strings.Join(lines, "\n")
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

var prompts = map[user.Stage]string{
	user.StageChoosingFaculty:  "👋 Привет! Я подскажу, какая сейчас пара.\n\nВыбери свой факультет:",
	user.StageChoosingProgram:  "Выбери направление:",
	user.StageChoosingCourse:   "Выбери курс:",
	user.StageChoosingGroup:    "Выбери группу:",
	user.StageChoosingSubgroup: "Выбери подгруппу:",
}

var rejections = map[user.Stage]string{
	user.StageChoosingFaculty:  "Такого факультета нет.",
	user.StageChoosingProgram:  "Такого направления нет.",
	user.StageChoosingCourse:   "Такого курса нет.",
	user.StageChoosingGroup:    "Такой группы нет.",
	user.StageChoosingSubgroup: "Такой подгруппы нет.",
}

// Prompt returns the question for a registration step. A rejected answer
// is reported before the question is repeated.
func (p *SchedulePresenter) Prompt(stage user.Stage, rejected bool) string {
	if stage == user.StageRegistered {
		return "✅ Готово! Теперь выбирай, что показать."
	}
	text := prompts[stage]
	if rejected {
		text = "❌ " + rejections[stage] + " Выбери вариант на клавиатуре.\n\n" + text
	}
	return text
}

// Registered summarizes a completed profile.
func (p *SchedulePresenter) Registered(profile user.Profile) string {
	var sb strings.Builder
	sb.WriteString("✅ <b>Регистрация завершена</b>\n\n")
	fmt.Fprintf(&sb, "Факультет: %s\n", escapeHTML(profile.Faculty))
	fmt.Fprintf(&sb, "Направление: %s\n", escapeHTML(profile.Program))
	fmt.Fprintf(&sb, "Курс: %d\n", profile.Course)
	fmt.Fprintf(&sb, "Группа: %s", escapeHTML(profile.Group))
	if profile.Subgroup > 0 {
		fmt.Fprintf(&sb, "\nПодгруппа: %d", profile.Subgroup)
	}
	return sb.String()
}

// Help is the /help text.
func (p *SchedulePresenter) Help() string {
	return "<b>Что я умею</b>\n\n" +
		"• " + string(ButtonCurrent) + " - пара, которая идёт сейчас\n" +
		"• " + string(ButtonNext) + " - ближайшая пара сегодня\n" +
		"• " + string(ButtonToday) + " и " + string(ButtonTomorrow) + " - расписание на день\n" +
		"• " + string(ButtonRestOfWeek) + " - оставшиеся пары недели\n" +
		"• " + string(ButtonWeekSign) + " - чётность текущей недели\n\n" +
		"/reset - выбрать другую группу"
}

// UseMenu asks a registered user to pick a menu button.
func (p *SchedulePresenter) UseMenu() string {
	return "Выбери действие на клавиатуре 👇"
}

// Unavailable is shown when the timetable source cannot be reached.
func (p *SchedulePresenter) Unavailable() string {
	return "😔 Расписание сейчас недоступно. Попробуй через пару минут."
}

// NotConfigured is shown when the faculty has no week parity set.
func (p *SchedulePresenter) NotConfigured() string {
	return "🛠 Для твоего факультета ещё не настроен календарь недель. Мы уже знаем об этом."
}

// GroupNotFound is shown when the group disappeared from the timetable.
func (p *SchedulePresenter) GroupNotFound() string {
	return "🤔 Не нашёл расписание твоей группы. Нажми «" + string(ButtonChangeGroup) + "» и выбери её заново."
}

// ErrorMessage picks the user-facing text for a failed action.
func (p *SchedulePresenter) ErrorMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrCohortNotFound):
		return p.GroupNotFound()
	case shared.IsConfiguration(err):
		return p.NotConfigured()
	case shared.IsExternalService(err):
		return p.Unavailable()
	default:
		return p.InternalError()
	}
}

// InternalError is shown on unexpected failures.
func (p *SchedulePresenter) InternalError() string {
	return "😔 Произошла ошибка. Попробуй позже."
}

// RateLimited is shown when a user sends messages too quickly.
func (p *SchedulePresenter) RateLimited() string {
	return "⏳ Слишком много запросов! Подожди немного."
}
