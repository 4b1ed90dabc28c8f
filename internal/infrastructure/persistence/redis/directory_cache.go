package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/tversu/timing-bot/internal/domain/timetable"
)

// DirectoryCache decorates a timetable.Directory with Redis caching.
// The lists change a few times a year, so entries live for hours.
type DirectoryCache struct {
	next  timetable.Directory
	cache *Cache
	ttl   time.Duration
}

var _ timetable.Directory = (*DirectoryCache)(nil)

// NewDirectoryCache creates a caching directory.
func NewDirectoryCache(next timetable.Directory, cache *Cache, ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{next: next, cache: cache, ttl: ttl}
}

// Faculties implements timetable.Directory.
func (d *DirectoryCache) Faculties(ctx context.Context) ([]string, error) {
	return GetOrLoad(ctx, d.cache, PrefixDirectory+"faculties", d.ttl, d.next.Faculties)
}

// Programs implements timetable.Directory.
func (d *DirectoryCache) Programs(ctx context.Context, faculty string) ([]string, error) {
	key := fmt.Sprintf("%sprograms:%s", PrefixDirectory, faculty)
	return GetOrLoad(ctx, d.cache, key, d.ttl, func(ctx context.Context) ([]string, error) {
		return d.next.Programs(ctx, faculty)
	})
}

// Courses implements timetable.Directory.
func (d *DirectoryCache) Courses(ctx context.Context, faculty, program string) ([]int, error) {
	key := fmt.Sprintf("%scourses:%s:%s", PrefixDirectory, faculty, program)
	return GetOrLoad(ctx, d.cache, key, d.ttl, func(ctx context.Context) ([]int, error) {
		return d.next.Courses(ctx, faculty, program)
	})
}

// Groups implements timetable.Directory.
func (d *DirectoryCache) Groups(ctx context.Context, faculty, program string, course int) ([]string, error) {
	key := fmt.Sprintf("%sgroups:%s:%s:%d", PrefixDirectory, faculty, program, course)
	return GetOrLoad(ctx, d.cache, key, d.ttl, func(ctx context.Context) ([]string, error) {
		return d.next.Groups(ctx, faculty, program, course)
	})
}

// SubgroupCount implements timetable.Directory.
func (d *DirectoryCache) SubgroupCount(ctx context.Context, faculty, program string, course int, group string) (int, error) {
	key := fmt.Sprintf("%ssubgroups:%s:%s:%d:%s", PrefixDirectory, faculty, program, course, group)
	return GetOrLoad(ctx, d.cache, key, d.ttl, func(ctx context.Context) (int, error) {
		return d.next.SubgroupCount(ctx, faculty, program, course, group)
	})
}

// Invalidate drops every cached directory list.
func (d *DirectoryCache) Invalidate(ctx context.Context) error {
	return d.cache.DeleteByPattern(ctx, PrefixDirectory+"*")
}

// Warm loads the faculty and program lists into the cache.
func (d *DirectoryCache) Warm(ctx context.Context) (int, error) {
	if err := d.Invalidate(ctx); err != nil {
		return 0, err
	}
	faculties, err := d.Faculties(ctx)
	if err != nil {
		return 0, err
	}
	for _, f := range faculties {
		if _, err := d.Programs(ctx, f); err != nil {
			return 0, fmt.Errorf("warm programs of %q: %w", f, err)
		}
	}
	return len(faculties), nil
}
