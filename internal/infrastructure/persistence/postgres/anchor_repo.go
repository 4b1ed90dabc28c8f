package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR ANCHOR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AnchorRepository implements calendar.Repository for PostgreSQL.
type AnchorRepository struct {
	conn *Connection

	// week_start is a DATE; it is rebuilt as local midnight in loc.
	loc *time.Location
}

var _ calendar.Repository = (*AnchorRepository)(nil)

// NewAnchorRepository creates a new AnchorRepository.
func NewAnchorRepository(conn *Connection, loc *time.Location) *AnchorRepository {
	if loc == nil {
		loc = timeutil.MoscowTZ
	}
	return &AnchorRepository{conn: conn, loc: loc}
}

// Anchor returns the anchor of a faculty.
func (r *AnchorRepository) Anchor(ctx context.Context, faculty string) (calendar.Anchor, error) {
	query := `
		SELECT faculty, week_start, sign, updated_at
		FROM calendar_anchors
		WHERE faculty = $1
	`

	anchor, err := r.scanAnchor(r.conn.QueryRow(ctx, query, faculty))
	if err != nil {
		if IsNoRows(err) {
			return calendar.Anchor{}, fmt.Errorf("%w: %s", shared.ErrAnchorNotConfigured, faculty)
		}
		return calendar.Anchor{}, err
	}
	return anchor, nil
}

// Save creates or replaces the anchor of a faculty.
func (r *AnchorRepository) Save(ctx context.Context, anchor calendar.Anchor) error {
	if err := anchor.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO calendar_anchors (faculty, week_start, sign, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (faculty) DO UPDATE SET
			week_start = EXCLUDED.week_start,
			sign = EXCLUDED.sign,
			updated_at = EXCLUDED.updated_at
	`

	updatedAt := anchor.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := r.conn.Exec(ctx, query,
		anchor.Faculty,
		time.Date(anchor.WeekStart.Year(), anchor.WeekStart.Month(), anchor.WeekStart.Day(), 0, 0, 0, 0, time.UTC),
		anchor.Sign.String(),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save anchor for %q: %w", anchor.Faculty, err)
	}
	return nil
}

// List returns all anchors ordered by faculty.
func (r *AnchorRepository) List(ctx context.Context) ([]calendar.Anchor, error) {
	query := `
		SELECT faculty, week_start, sign, updated_at
		FROM calendar_anchors
		ORDER BY faculty
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list anchors: %w", err)
	}
	defer rows.Close()

	var anchors []calendar.Anchor
	for rows.Next() {
		anchor, err := r.scanAnchor(rows)
		if err != nil {
			return nil, err
		}
		anchors = append(anchors, anchor)
	}
	return anchors, rows.Err()
}

// Delete removes the anchor of a faculty.
func (r *AnchorRepository) Delete(ctx context.Context, faculty string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM calendar_anchors WHERE faculty = $1`, faculty)
	if err != nil {
		return fmt.Errorf("failed to delete anchor for %q: %w", faculty, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAnchorNotConfigured, faculty)
	}
	return nil
}

func (r *AnchorRepository) scanAnchor(row pgx.Row) (calendar.Anchor, error) {
	var (
		a         calendar.Anchor
		weekStart time.Time
		sign      string
	)

	if err := row.Scan(&a.Faculty, &weekStart, &sign, &a.UpdatedAt); err != nil {
		if IsNoRows(err) {
			return calendar.Anchor{}, err
		}
		return calendar.Anchor{}, fmt.Errorf("failed to scan anchor: %w", err)
	}

	parsed, err := timetable.ParseWeekSign(sign)
	if err != nil {
		return calendar.Anchor{}, fmt.Errorf("anchor %q: %w", a.Faculty, err)
	}
	a.Sign = parsed
	a.WeekStart = timeutil.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), r.loc)
	return a, nil
}
