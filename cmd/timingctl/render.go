package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tversu/timing-bot/internal/application/query"
	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/internal/infrastructure/persistence/postgres"
	"github.com/tversu/timing-bot/internal/interface/telegram/presenter"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	dayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).MarginTop(1)
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func renderWeek(p user.Profile, sign timetable.WeekSign, schedule *query.DaySchedule) string {
	var b strings.Builder

	title := fmt.Sprintf("%s, группа %s", p.Faculty, p.Group)
	if p.Subgroup > 0 {
		title += fmt.Sprintf(", %d подгруппа", p.Subgroup)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(presenter.Capitalize(presenter.WeekSignName(sign)) + " неделя"))
	b.WriteString("\n")

	if schedule == nil || schedule.IsEmpty() {
		b.WriteString(mutedStyle.Render("Пар нет."))
		b.WriteString("\n")
		return b.String()
	}

	for _, day := range schedule.Days() {
		b.WriteString(dayStyle.Render(presenter.Capitalize(presenter.DayName(day))))
		b.WriteString("\n")
		for _, c := range schedule.Lessons(day) {
			line := timeStyle.Render(c.Start.String()+"-"+c.End.String()) + "  " + c.Subject
			var extra []string
			if c.Room != "" {
				extra = append(extra, c.Room)
			}
			if c.Teacher != "" {
				extra = append(extra, c.Teacher)
			}
			if len(extra) > 0 {
				line += "  " + mutedStyle.Render(strings.Join(extra, ", "))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderAnchors(anchors []calendar.Anchor, now time.Time) string {
	if len(anchors) == 0 {
		return mutedStyle.Render("no anchors configured") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%-24s %-12s %-6s %s", "FACULTY", "WEEK", "SIGN", "THIS WEEK")))
	b.WriteString("\n")
	for _, a := range anchors {
		fmt.Fprintf(&b, "%-24s %-12s %-6s %s\n",
			a.Faculty, a.WeekStart.Format(timeutil.FormatDate), a.Sign, a.SignAt(now))
	}
	return b.String()
}

func renderMigrations(status []postgres.Migration) string {
	var b strings.Builder
	for _, m := range status {
		mark := mutedStyle.Render("pending")
		if m.IsApplied {
			mark = okStyle.Render("applied " + m.AppliedAt.Format(time.DateTime))
		}
		fmt.Fprintf(&b, "%4d  %-32s %s\n", m.Version, m.Name, mark)
	}
	return b.String()
}
