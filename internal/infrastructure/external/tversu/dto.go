package tversu

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// API RESPONSE WRAPPERS
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse is the envelope every endpoint of the timetable API uses.
type APIResponse[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

// APIErrorDTO is the body of a 4xx/5xx response.
type APIErrorDTO struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIErrorDTO) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("timetable api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("timetable api %d: %s", e.Status, e.Message)
}

// RateLimitError is returned on HTTP 429.
type RateLimitError struct {
	After time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("timetable api rate limit, retry after %s", e.After)
}

// RetryAfter implements retry.Waiter.
func (e *RateLimitError) RetryAfter() time.Duration {
	return e.After
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY DTOs
// ══════════════════════════════════════════════════════════════════════════════

// NamedDTO is an entry of the faculty, program and group lists.
type NamedDTO struct {
	Name string `json:"name" validate:"required"`
}

// CourseDTO is an entry of the course list.
type CourseDTO struct {
	Number int `json:"number" validate:"min=1,max=6"`
}

// SubgroupsDTO is the answer of the subgroup endpoint.
type SubgroupsDTO struct {
	Count int `json:"count" validate:"min=0"`
}

// ══════════════════════════════════════════════════════════════════════════════
// TIMETABLE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// CellDTO is one lesson of a group's weekly grid as the API sends it.
// Times are "HH:MM", day is 1 (Monday) to 6 (Saturday).
type CellDTO struct {
	Day          int    `json:"day" validate:"min=1,max=6"`
	Start        string `json:"start" validate:"required"`
	End          string `json:"end" validate:"required"`
	Subject      string `json:"subject" validate:"required"`
	SubjectShort string `json:"subject_short,omitempty"`
	Teacher      string `json:"teacher,omitempty"`
	Room         string `json:"room,omitempty"`
	WeekSign     string `json:"week_sign,omitempty" validate:"omitempty,oneof=any odd even"`
	Subgroup     int    `json:"subgroup" validate:"min=0"`
}
