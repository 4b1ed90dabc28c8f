package timetable

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// ИНТЕРФЕЙСЫ ИСТОЧНИКОВ ДАННЫХ
// Реализации находятся в infrastructure/external/timetable.
// ══════════════════════════════════════════════════════════════════════════════

// Feed отдаёт сырое недельное расписание группы: без дедупликации и фильтров.
type Feed interface {
	// Cells возвращает все ячейки группы.
	// Возвращает ошибку, совместимую с shared.ErrNotFound, если группа неизвестна.
	Cells(ctx context.Context, cohort Cohort) ([]Cell, error)
}

// Directory - справочник факультетов, направлений, курсов и групп.
// Используется диалогом регистрации.
type Directory interface {
	Faculties(ctx context.Context) ([]string, error)
	Programs(ctx context.Context, faculty string) ([]string, error)
	Courses(ctx context.Context, faculty, program string) ([]int, error)
	Groups(ctx context.Context, faculty, program string, course int) ([]string, error)
	SubgroupCount(ctx context.Context, faculty, program string, course int, group string) (int, error)
}

// FeedFunc адаптирует функцию к интерфейсу Feed.
type FeedFunc func(ctx context.Context, cohort Cohort) ([]Cell, error)

// Cells вызывает f.
func (f FeedFunc) Cells(ctx context.Context, cohort Cohort) ([]Cell, error) {
	return f(ctx, cohort)
}
