package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
// The registration state is stored flattened (see user.Snapshot).
type UserRepository struct {
	conn *Connection
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// GetByTelegramID returns a user by Telegram ID.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID user.TelegramID) (*user.User, error) {
	query := `
		SELECT id::text, telegram_id, stage, faculty, program, course, group_name, subgroup,
			   created_at, updated_at
		FROM users
		WHERE telegram_id = $1
	`

	row := r.conn.QueryRow(ctx, query, int64(telegramID))
	return r.scanUser(row)
}

// Save inserts the user or updates its registration state.
func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, telegram_id, stage, faculty, program, course, group_name, subgroup,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (telegram_id) DO UPDATE SET
			stage = EXCLUDED.stage,
			faculty = EXCLUDED.faculty,
			program = EXCLUDED.program,
			course = EXCLUDED.course,
			group_name = EXCLUDED.group_name,
			subgroup = EXCLUDED.subgroup,
			updated_at = EXCLUDED.updated_at
	`

	snap := user.SnapshotOf(u.State)
	_, err := r.conn.Exec(ctx, query,
		u.ID,
		int64(u.TelegramID),
		string(snap.Stage),
		snap.Faculty,
		snap.Program,
		snap.Course,
		snap.Group,
		snap.Subgroup,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save user %d: %w", u.TelegramID, err)
	}
	return nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CountRegistered returns the number of users that finished registration.
func (r *UserRepository) CountRegistered(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE stage = $1`
	if err := r.conn.QueryRow(ctx, query, string(user.StageRegistered)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registered users: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var (
		u          user.User
		telegramID int64
		stage      string
		snap       user.Snapshot
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(
		&u.ID,
		&telegramID,
		&stage,
		&snap.Faculty,
		&snap.Program,
		&snap.Course,
		&snap.Group,
		&snap.Subgroup,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	snap.Stage = user.Stage(stage)
	state, err := user.Restore(snap)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", telegramID, err)
	}

	u.TelegramID = user.TelegramID(telegramID)
	u.State = state
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt
	return &u, nil
}
