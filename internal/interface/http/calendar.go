package http

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/tversu/timing-bot/internal/application/query"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
)

// CalendarFeed accumulates lessons as iCalendar events.
type CalendarFeed struct {
	cal     *ics.Calendar
	profile user.Profile
	stamp   time.Time
	ids     map[string]int
}

// NewCalendarFeed starts an empty feed for a group. stamp becomes DTSTAMP
// of every event.
func NewCalendarFeed(p user.Profile, stamp time.Time) *CalendarFeed {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tversu//timing-bot//RU")
	cal.SetName(calendarName(p))
	return &CalendarFeed{cal: cal, profile: p, stamp: stamp, ids: make(map[string]int)}
}

// AddWeek adds the lessons of the week starting on monday.
func (f *CalendarFeed) AddWeek(monday time.Time, week *query.DaySchedule) {
	if week == nil {
		return
	}
	for _, day := range week.Days() {
		date := monday.AddDate(0, 0, day.Offset())
		for _, cell := range week.Lessons(day) {
			f.addLesson(date, cell)
		}
	}
}

func (f *CalendarFeed) addLesson(date time.Time, c timetable.Cell) {
	start := c.Start.On(date)
	end := c.End.On(date)

	event := f.cal.AddEvent(f.eventID(start, c))
	event.SetDtStampTime(f.stamp)
	event.SetStartAt(start)
	event.SetEndAt(end)
	event.SetSummary(c.Subject)
	if c.Room != "" {
		event.SetLocation(c.Room)
	}
	if c.Teacher != "" {
		event.SetDescription(c.Teacher)
	}
}

// eventID is stable across refreshes so calendar clients update in place.
func (f *CalendarFeed) eventID(start time.Time, c timetable.Cell) string {
	id := fmt.Sprintf("%s-%d-%s",
		start.Format("20060102T1504"), c.Subgroup, slug(f.profile.Faculty+"-"+f.profile.Group))
	n := f.ids[id]
	f.ids[id] = n + 1
	if n > 0 {
		id = fmt.Sprintf("%s-%d", id, n)
	}
	return id + "@timing-bot"
}

// Len returns the number of events in the feed.
func (f *CalendarFeed) Len() int {
	return len(f.cal.Events())
}

// Serialize writes the feed in iCalendar format.
func (f *CalendarFeed) Serialize(w io.Writer) error {
	return f.cal.SerializeTo(w)
}

func calendarName(p user.Profile) string {
	if p.Subgroup > 0 {
		return fmt.Sprintf("%s %s (%d подгруппа)", p.Faculty, p.Group, p.Subgroup)
	}
	return p.Faculty + " " + p.Group
}

func slug(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '@' || r == '/' {
			return '_'
		}
		return r
	}, s)
}
