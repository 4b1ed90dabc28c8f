package calendar

import (
	"context"
	"fmt"

	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// AnchorSource отдаёт якорь факультета.
// Возвращает shared.ErrAnchorNotConfigured, если якоря нет.
type AnchorSource interface {
	Anchor(ctx context.Context, faculty string) (Anchor, error)
}

// Repository - хранилище якорей, которым управляют администраторы.
type Repository interface {
	AnchorSource

	// Save создаёт или заменяет якорь факультета.
	Save(ctx context.Context, anchor Anchor) error

	// List возвращает все якоря, отсортированные по факультету.
	List(ctx context.Context) ([]Anchor, error)

	// Delete удаляет якорь факультета.
	Delete(ctx context.Context, faculty string) error
}

// Resolver определяет чётность текущей и следующей недели.
type Resolver struct {
	anchors AnchorSource
	clock   timeutil.Clock
}

// NewResolver создаёт Resolver.
func NewResolver(anchors AnchorSource, clock timeutil.Clock) *Resolver {
	return &Resolver{anchors: anchors, clock: clock}
}

// CurrentWeekSign возвращает чётность текущей недели факультета.
func (r *Resolver) CurrentWeekSign(ctx context.Context, faculty string) (timetable.WeekSign, error) {
	return r.signAt(ctx, faculty, 0)
}

// NextWeekSign возвращает чётность следующей недели факультета.
func (r *Resolver) NextWeekSign(ctx context.Context, faculty string) (timetable.WeekSign, error) {
	return r.signAt(ctx, faculty, 1)
}

func (r *Resolver) signAt(ctx context.Context, faculty string, weeksAhead int) (timetable.WeekSign, error) {
	anchor, err := r.anchors.Anchor(ctx, faculty)
	if err != nil {
		return timetable.WeekSignAny, fmt.Errorf("resolve week sign for %q: %w", faculty, err)
	}
	return anchor.SignAt(r.clock.Now().AddDate(0, 0, 7*weeksAhead)), nil
}
