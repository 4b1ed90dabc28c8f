package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tversu/timing-bot/internal/application/query"
	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

func TestParseAnchor(t *testing.T) {
	a, err := parseAnchor("ФПМиК", "2024-09-04", "even", timeutil.MoscowTZ)
	require.NoError(t, err)
	assert.Equal(t, "ФПМиК", a.Faculty)
	assert.Equal(t, "2024-09-02", a.WeekStart.Format(timeutil.FormatDate))
	assert.Equal(t, timetable.WeekSignEven, a.Sign)

	_, err = parseAnchor("ФПМиК", "04.09.2024", "even", timeutil.MoscowTZ)
	assert.Error(t, err)

	_, err = parseAnchor("ФПМиК", "2024-09-04", "any", timeutil.MoscowTZ)
	assert.ErrorIs(t, err, shared.ErrInvalidAnchor)
}

func TestRenderWeek(t *testing.T) {
	s := query.NewDaySchedule()
	s.Add(timetable.Cell{
		Day:     timetable.Tuesday,
		Start:   timetable.NewTimeOfDay(9, 0),
		End:     timetable.NewTimeOfDay(10, 35),
		Subject: "Матанализ",
		Room:    "6-212",
		Teacher: "Петров П. П.",
	})

	out := renderWeek(user.Profile{Faculty: "ФПМиК", Group: "21", Subgroup: 2}, timetable.WeekSignOdd, s)
	assert.Contains(t, out, "ФПМиК, группа 21, 2 подгруппа")
	assert.Contains(t, out, "Нечётная неделя")
	assert.Contains(t, out, "Вторник")
	assert.Contains(t, out, "09:00-10:35")
	assert.Contains(t, out, "Матанализ")
	assert.Contains(t, out, "6-212, Петров П. П.")

	empty := renderWeek(user.Profile{Faculty: "ФПМиК", Group: "21"}, timetable.WeekSignEven, query.NewDaySchedule())
	assert.Contains(t, empty, "Пар нет.")
}

func TestRenderAnchors(t *testing.T) {
	assert.Contains(t, renderAnchors(nil, time.Now()), "no anchors configured")

	a, err := calendar.NewAnchor("fpmk", time.Date(2024, 9, 2, 0, 0, 0, 0, timeutil.MoscowTZ), timetable.WeekSignOdd)
	require.NoError(t, err)
	out := renderAnchors([]calendar.Anchor{a}, time.Date(2024, 9, 10, 12, 0, 0, 0, timeutil.MoscowTZ))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"fpmk", "2024-09-02", "odd", "even"}, strings.Fields(lines[1]))
}

func TestTokenHashCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader("from-stdin\n"))
	rootCmd.SetArgs([]string{"token", "hash"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
}
