package tversu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultClientConfig(server.URL)
	cfg.RateLimit = 0
	cfg.MaxRetries = 2
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	cfg.HTTPClient = server.Client()
	return NewClient(cfg)
}

func TestClient_Cells(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/faculties/fpmik/groups/pmi-21/cells", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"data":[
			{"day":1,"start":"08:30","end":"10:05","subject":"Математический анализ","subject_short":"Матан",
			 "teacher":"Иванов И.И.","room":"3-201","week_sign":"odd","subgroup":0},
			{"day":2,"start":"10:15","end":"11:50","subject":"Программирование","teacher":"Петров П.П.","room":"4-110","subgroup":1}
		]}`))
	})
	client := newTestClient(t, mux)

	cells, err := client.Cells(context.Background(), timetable.Cohort{Faculty: "fpmik", Group: "pmi-21"})
	require.NoError(t, err)
	require.Len(t, cells, 2)

	assert.Equal(t, timetable.Monday, cells[0].Day)
	assert.Equal(t, timetable.NewTimeOfDay(8, 30), cells[0].Start)
	assert.Equal(t, timetable.NewTimeOfDay(10, 5), cells[0].End)
	assert.Equal(t, timetable.WeekSignOdd, cells[0].WeekSign)
	assert.Equal(t, "Матан", cells[0].SubjectShort)

	assert.Equal(t, timetable.WeekSignAny, cells[1].WeekSign)
	assert.Equal(t, 1, cells[1].Subgroup)
}

func TestClient_CellsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"GROUP_NOT_FOUND","message":"no such group"}`))
	}))

	_, err := client.Cells(context.Background(), timetable.Cohort{Faculty: "f", Group: "g"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrCohortNotFound)
	assert.True(t, shared.IsNotFound(err))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"name":"ФПМиК"},{"name":"Исторический"}]}`))
	}))

	faculties, err := client.Faculties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ФПМиК", "Исторический"}, faculties)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAndReportsUnavailable(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.Faculties(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrFeedUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RateLimitedIsRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"count":2}}`))
	}))

	count, err := client.SubgroupCount(context.Background(), "ФПМиК", "ПМИ", 2, "ПМИ-21")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	_, err := client.Courses(context.Background(), "ФПМиК", "ПМИ")
	require.Error(t, err)
	assert.True(t, shared.IsExternalService(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_InvalidCellRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"day":7,"start":"08:30","end":"10:05","subject":"X"}]}`))
	}))

	_, err := client.Cells(context.Background(), timetable.Cohort{Faculty: "f", Group: "g"})
	assert.ErrorIs(t, err, shared.ErrFeedInvalidResponse)
}

func TestClient_ObservesRequests(t *testing.T) {
	var outcomes []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"number":1},{"number":2}]}`))
	}))
	t.Cleanup(server.Close)

	cfg := DefaultClientConfig(server.URL)
	cfg.OnRequest = func(operation, outcome string, _ time.Duration) {
		outcomes = append(outcomes, operation+":"+outcome)
	}
	client := NewClient(cfg)

	courses, err := client.Courses(context.Background(), "ФПМиК", "ПМИ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, courses)
	assert.Equal(t, []string{"courses:ok"}, outcomes)
}

func TestMapper_CellFromDTO(t *testing.T) {
	m := NewMapper()

	_, err := m.CellFromDTO(CellDTO{Day: 1, Start: "10:00", End: "09:00", Subject: "X"})
	assert.ErrorIs(t, err, shared.ErrFeedInvalidResponse)

	_, err = m.CellFromDTO(CellDTO{Day: 1, Start: "10:00", End: "11:00", Subject: "X", WeekSign: "sometimes"})
	assert.ErrorIs(t, err, shared.ErrFeedInvalidResponse)

	cell, err := m.CellFromDTO(CellDTO{Day: 6, Start: "10:00", End: "11:35", Subject: "X", WeekSign: "even"})
	require.NoError(t, err)
	assert.Equal(t, timetable.Saturday, cell.Day)
	assert.Equal(t, timetable.WeekSignEven, cell.WeekSign)
}
