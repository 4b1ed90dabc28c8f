package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tversu/timing-bot/internal/application/query"
	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/internal/infrastructure/external/telegram"
	"github.com/tversu/timing-bot/internal/interface/http/handlers"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

const adminToken = "s3cret-admin"

// wednesday 2024-09-04 10:00 MSK
var testNow = time.Date(2024, 9, 4, 10, 0, 0, 0, timeutil.MoscowTZ)

type memoryAnchors struct {
	mu      sync.Mutex
	anchors map[string]calendar.Anchor
}

func newMemoryAnchors() *memoryAnchors {
	return &memoryAnchors{anchors: make(map[string]calendar.Anchor)}
}

func (m *memoryAnchors) Anchor(_ context.Context, faculty string) (calendar.Anchor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.anchors[faculty]
	if !ok {
		return calendar.Anchor{}, shared.ErrAnchorNotConfigured
	}
	return a, nil
}

func (m *memoryAnchors) Save(_ context.Context, a calendar.Anchor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.anchors[a.Faculty] = a
	return nil
}

func (m *memoryAnchors) List(context.Context) ([]calendar.Anchor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]calendar.Anchor, 0, len(m.anchors))
	for _, a := range m.anchors {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b calendar.Anchor) int { return strings.Compare(a.Faculty, b.Faculty) })
	return out, nil
}

func (m *memoryAnchors) Delete(_ context.Context, faculty string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.anchors, faculty)
	return nil
}

type stubWeeks struct {
	this, next *query.DaySchedule
	err        error
}

func (s stubWeeks) WeekLessons(_ context.Context, p user.Profile, nextWeek bool) (*query.DaySchedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	if p.Group != "21" {
		return nil, shared.ErrCohortNotFound
	}
	if nextWeek {
		return s.next, nil
	}
	return s.this, nil
}

func lesson(day timetable.DayOfWeek, h int, subject string) timetable.Cell {
	return timetable.Cell{
		Day:     day,
		Start:   timetable.NewTimeOfDay(h, 0),
		End:     timetable.NewTimeOfDay(h+1, 35),
		Subject: subject,
		Teacher: "Иванов И. И.",
		Room:    "6-212",
	}
}

func newTestServer(t *testing.T, mutate func(*Config, *Dependencies)) (*Server, *memoryAnchors) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	require.NoError(t, err)

	this := query.NewDaySchedule()
	this.Add(lesson(timetable.Monday, 9, "Алгебра"))
	this.Add(lesson(timetable.Thursday, 11, "Геометрия"))
	next := query.NewDaySchedule()
	next.Add(lesson(timetable.Tuesday, 13, "Физика"))

	anchors := newMemoryAnchors()
	cfg := DefaultConfig()
	cfg.AdminTokenHash = string(hash)
	deps := Dependencies{
		Anchors: anchors,
		Lessons: stubWeeks{this: this, next: next},
		Clock:   timeutil.FixedClock(testNow),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("timingbot_users 1\n"))
		}),
	}
	if mutate != nil {
		mutate(&cfg, &deps)
	}
	return NewServer(cfg, deps), anchors
}

func do(t *testing.T, s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + adminToken}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = do(t, s, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "timingbot_users")
}

func TestReadyReportsFailedCheck(t *testing.T) {
	s, _ := newTestServer(t, func(_ *Config, d *Dependencies) {
		checker := handlers.NewCompositeHealthChecker("test")
		checker.AddCheck("postgres", func(context.Context) error { return errors.New("connection refused") })
		d.HealthChecker = checker
	})

	rec := do(t, s, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestAdminRequiresToken(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/admin/anchors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/admin/anchors", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/admin/anchors", "", bearer())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminDisabledWithoutHash(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config, _ *Dependencies) { c.AdminTokenHash = "" })

	rec := do(t, s, http.MethodGet, "/admin/anchors", "", bearer())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutAnchor(t *testing.T) {
	s, anchors := newTestServer(t, nil)

	rec := do(t, s, http.MethodPut, "/admin/anchors/fpmk",
		`{"week_start":"2024-09-04","sign":"odd"}`, bearer())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data AnchorDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fpmk", body.Data.Faculty)
	assert.Equal(t, "2024-09-02", body.Data.WeekStart, "anchor is normalized to monday")
	assert.Equal(t, "odd", body.Data.Sign)

	saved, err := anchors.Anchor(context.Background(), "fpmk")
	require.NoError(t, err)
	assert.Equal(t, timetable.WeekSignOdd, saved.Sign)
	assert.Equal(t, testNow, saved.UpdatedAt)

	rec = do(t, s, http.MethodGet, "/admin/anchors", "", bearer())
	assert.Contains(t, rec.Body.String(), `"faculty":"fpmk"`)

	rec = do(t, s, http.MethodDelete, "/admin/anchors/fpmk", "", bearer())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err = anchors.Anchor(context.Background(), "fpmk")
	assert.ErrorIs(t, err, shared.ErrAnchorNotConfigured)
}

func TestPutAnchorValidation(t *testing.T) {
	s, anchors := newTestServer(t, nil)

	cases := map[string]string{
		"any sign":     `{"week_start":"2024-09-02","sign":"any"}`,
		"bad date":     `{"week_start":"02.09.2024","sign":"odd"}`,
		"missing sign": `{"week_start":"2024-09-02"}`,
		"not json":     `week_start=2024-09-02`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, s, http.MethodPut, "/admin/anchors/fpmk", body, bearer())
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	list, _ := anchors.List(context.Background())
	assert.Empty(t, list)
}

func TestCalendarExport(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/calendar/fpmk/21.ics?subgroup=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")

	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Equal(t, 3, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "SUMMARY:Алгебра")
	assert.Contains(t, body, "SUMMARY:Физика")
	// monday 09:00 MSK of the current week
	assert.Contains(t, body, "20240902T060000Z")
	// tuesday 13:00 MSK of the next week
	assert.Contains(t, body, "20240910T100000Z")
}

func TestCalendarErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/calendar/fpmk/99.ics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/calendar/fpmk/21.ics?subgroup=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s, _ = newTestServer(t, func(_ *Config, d *Dependencies) {
		d.Lessons = stubWeeks{err: shared.ErrFeedUnavailable}
	})
	rec = do(t, s, http.MethodGet, "/calendar/fpmk/21.ics", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCalendarExportDisabled(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config, _ *Dependencies) { c.CalendarExport = false })

	rec := do(t, s, http.MethodGet, "/calendar/fpmk/21.ics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendarFeedSerialize(t *testing.T) {
	monday := timeutil.StartOfWeek(testNow)
	week := query.NewDaySchedule()
	week.Add(timetable.Cell{Day: timetable.Monday, Start: timetable.NewTimeOfDay(9, 0), End: timetable.NewTimeOfDay(10, 30), Subject: "Алгебра", Room: "3-201"})
	week.Add(timetable.Cell{Day: timetable.Monday, Start: timetable.NewTimeOfDay(9, 0), End: timetable.NewTimeOfDay(10, 30), Subject: "Алгебра", Room: "3-202"})

	feed := NewCalendarFeed(user.Profile{Faculty: "fpmk", Group: "21"}, testNow)
	feed.AddWeek(monday, week)
	require.Equal(t, 2, feed.Len())

	var buf strings.Builder
	require.NoError(t, feed.Serialize(&buf))

	body := buf.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Contains(t, body, "END:VCALENDAR")
	assert.Contains(t, body, "UID:20240902T0900-0-")
	assert.Equal(t, 2, strings.Count(body, "UID:20240902T0900-0-"))
	assert.Contains(t, body, "UID:20240902T0900-0-fpmk-21@timing-bot")
	assert.Contains(t, body, "UID:20240902T0900-0-fpmk-21-1@timing-bot")
}

func TestWebhookRoute(t *testing.T) {
	var got []int64
	s, _ := newTestServer(t, func(c *Config, d *Dependencies) {
		c.WebhookSecret = "hook"
		d.Webhook = func(_ context.Context, u *telegram.Update) error {
			got = append(got, u.UpdateID)
			return nil
		}
	})

	payload := `{"update_id":42,"message":{"message_id":1,"date":0,"chat":{"id":7,"type":"private"},"text":"/start"}}`

	rec := do(t, s, http.MethodPost, "/telegram/webhook", payload, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodPost, "/telegram/webhook", payload,
		map[string]string{handlers.SecretTokenHeader: "hook"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{42}, got)
}
