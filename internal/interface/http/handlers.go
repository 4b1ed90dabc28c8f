package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/pkg/logger"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth reports every registered check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ready":  false,
			"checks": status.Checks,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"alive": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN: WEEK PARITY ANCHORS
// ══════════════════════════════════════════════════════════════════════════════

// AnchorDTO is the wire form of a faculty anchor.
type AnchorDTO struct {
	Faculty   string    `json:"faculty"`
	WeekStart string    `json:"week_start"`
	Sign      string    `json:"sign"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// PutAnchorRequest is the body of PUT /admin/anchors/{faculty}.
type PutAnchorRequest struct {
	WeekStart string `json:"week_start" validate:"required,datetime=2006-01-02"`
	Sign      string `json:"sign" validate:"required,oneof=odd even"`
}

func toAnchorDTO(a calendar.Anchor) AnchorDTO {
	return AnchorDTO{
		Faculty:   a.Faculty,
		WeekStart: a.WeekStart.Format(timeutil.FormatDate),
		Sign:      a.Sign.String(),
		UpdatedAt: a.UpdatedAt,
	}
}

func (s *Server) handleListAnchors(w http.ResponseWriter, r *http.Request) {
	anchors, err := s.deps.Anchors.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	out := make([]AnchorDTO, 0, len(anchors))
	for _, a := range anchors {
		out = append(out, toAnchorDTO(a))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handlePutAnchor(w http.ResponseWriter, r *http.Request) {
	faculty := chi.URLParam(r, "faculty")

	var req PutAnchorRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	weekStart, err := timeutil.ParseDate(req.WeekStart, s.deps.Clock.Now().Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	sign, err := timetable.ParseWeekSign(req.Sign)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	anchor, err := calendar.NewAnchor(faculty, weekStart, sign)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	anchor.UpdatedAt = s.deps.Clock.Now()

	if err := s.deps.Anchors.Save(r.Context(), anchor); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.logger.Info("anchor updated",
		logger.String("faculty", anchor.Faculty),
		logger.String("week_start", req.WeekStart),
		logger.String("sign", anchor.Sign.String()),
	)
	writeData(w, http.StatusOK, toAnchorDTO(anchor))
}

func (s *Server) handleDeleteAnchor(w http.ResponseWriter, r *http.Request) {
	faculty := chi.URLParam(r, "faculty")
	if err := s.deps.Anchors.Delete(r.Context(), faculty); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR EXPORT
// ══════════════════════════════════════════════════════════════════════════════

// handleCalendar serves the group's current and next week as iCalendar.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	profile := user.Profile{
		Faculty: chi.URLParam(r, "faculty"),
		Group:   chi.URLParam(r, "group"),
	}
	if raw := r.URL.Query().Get("subgroup"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_subgroup", "subgroup must be a non-negative number")
			return
		}
		profile.Subgroup = n
	}

	now := s.deps.Clock.Now()
	thisWeek, err := s.deps.Lessons.WeekLessons(r.Context(), profile, false)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	nextWeek, err := s.deps.Lessons.WeekLessons(r.Context(), profile, true)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	feed := NewCalendarFeed(profile, now)
	monday := timeutil.StartOfWeek(now)
	feed.AddWeek(monday, thisWeek)
	feed.AddWeek(monday.AddDate(0, 0, 7), nextWeek)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+safeFilename(profile.Group)+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if err := feed.Serialize(w); err != nil {
		s.logger.Warn("calendar write failed", logger.Err(err))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps domain errors to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrFeedInvalidResponse):
		writeError(w, http.StatusBadGateway, "upstream_invalid", "timetable source returned an invalid response")
	case shared.IsValidation(err):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case shared.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsConfiguration(err):
		writeError(w, http.StatusConflict, "not_configured", err.Error())
	case shared.IsExternalService(err):
		writeError(w, http.StatusBadGateway, "upstream_unavailable", "timetable source is unavailable")
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		writeError(w, http.StatusServiceUnavailable, "canceled", "request canceled")
	default:
		s.logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func safeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\r', '\n':
			return '_'
		}
		return r
	}, name)
}
