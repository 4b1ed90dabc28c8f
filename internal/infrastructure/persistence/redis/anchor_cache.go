package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// anchorEntry is the cached form of calendar.Anchor.
type anchorEntry struct {
	Faculty   string    `json:"faculty"`
	WeekStart string    `json:"week_start"` // YYYY-MM-DD
	Sign      int       `json:"sign"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnchorCache decorates a calendar.Repository: reads go through Redis,
// writes go to the repository and invalidate the cached entry.
type AnchorCache struct {
	calendar.Repository
	cache *Cache
	ttl   time.Duration
	loc   *time.Location
}

var _ calendar.Repository = (*AnchorCache)(nil)

// NewAnchorCache creates a caching anchor repository. Cached week starts
// are rebuilt as local midnight in loc.
func NewAnchorCache(next calendar.Repository, cache *Cache, ttl time.Duration, loc *time.Location) *AnchorCache {
	if loc == nil {
		loc = timeutil.MoscowTZ
	}
	return &AnchorCache{Repository: next, cache: cache, ttl: ttl, loc: loc}
}

// Anchor implements calendar.AnchorSource.
func (a *AnchorCache) Anchor(ctx context.Context, faculty string) (calendar.Anchor, error) {
	entry, err := GetOrLoad(ctx, a.cache, PrefixAnchor+faculty, a.ttl, func(ctx context.Context) (anchorEntry, error) {
		anchor, err := a.Repository.Anchor(ctx, faculty)
		if err != nil {
			return anchorEntry{}, err
		}
		return anchorEntry{
			Faculty:   anchor.Faculty,
			WeekStart: anchor.WeekStart.Format(timeutil.FormatDate),
			Sign:      int(anchor.Sign),
			UpdatedAt: anchor.UpdatedAt,
		}, nil
	})
	if err != nil {
		return calendar.Anchor{}, err
	}
	weekStart, err := timeutil.ParseDate(entry.WeekStart, a.loc)
	if err != nil {
		return calendar.Anchor{}, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return calendar.Anchor{
		Faculty:   entry.Faculty,
		WeekStart: weekStart,
		Sign:      timetable.WeekSign(entry.Sign),
		UpdatedAt: entry.UpdatedAt,
	}, nil
}

// Save implements calendar.Repository.
func (a *AnchorCache) Save(ctx context.Context, anchor calendar.Anchor) error {
	if err := a.Repository.Save(ctx, anchor); err != nil {
		return err
	}
	return a.cache.Delete(ctx, PrefixAnchor+anchor.Faculty)
}

// Delete implements calendar.Repository.
func (a *AnchorCache) Delete(ctx context.Context, faculty string) error {
	if err := a.Repository.Delete(ctx, faculty); err != nil {
		return err
	}
	return a.cache.Delete(ctx, PrefixAnchor+faculty)
}
