// Package user содержит модель пользователя бота: его учебную группу
// и прогресс диалога регистрации.
// Здесь нет внешних зависимостей.
package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// TelegramID представляет уникальный идентификатор пользователя Telegram.
type TelegramID int64

// IsValid проверяет, что TelegramID положительный.
func (t TelegramID) IsValid() bool {
	return t > 0
}

// Profile - учебная группа пользователя. Движок расписания читает из неё
// факультет и группу (для загрузки ячеек) и подгруппу (для фильтрации).
type Profile struct {
	Faculty  string
	Program  string
	Course   int
	Group    string
	Subgroup int // 0 - группа не делится на подгруппы
}

// Cohort возвращает ключ расписания.
func (p Profile) Cohort() timetable.Cohort {
	return timetable.Cohort{Faculty: p.Faculty, Group: p.Group}
}

// Validate проверяет профиль.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Faculty) == "" || strings.TrimSpace(p.Group) == "" {
		return fmt.Errorf("%w: faculty and group are required", shared.ErrEmptyValue)
	}
	if p.Subgroup < 0 {
		return fmt.Errorf("%w: subgroup %d", shared.ErrValueOutOfRange, p.Subgroup)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// USER
// ══════════════════════════════════════════════════════════════════════════════

// User - пользователь бота.
type User struct {
	ID         string
	TelegramID TelegramID
	State      State
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewUser создаёт пользователя в начале регистрации.
func NewUser(id string, telegramID TelegramID, now time.Time) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", shared.ErrEmptyValue)
	}
	if !telegramID.IsValid() {
		return nil, shared.ErrInvalidTelegramID
	}
	return &User{
		ID:         id,
		TelegramID: telegramID,
		State:      Start{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Stage возвращает текущий шаг регистрации.
func (u *User) Stage() Stage {
	if u.State == nil {
		return StageStart
	}
	return u.State.Stage()
}

// Profile возвращает профиль зарегистрированного пользователя.
func (u *User) Profile() (Profile, error) {
	if r, ok := u.State.(Registered); ok {
		return r.Profile, nil
	}
	return Profile{}, shared.ErrNotRegistered
}

// MoveTo переводит пользователя в новое состояние.
func (u *User) MoveTo(s State, now time.Time) {
	u.State = s
	u.UpdatedAt = now
}

// Reset возвращает пользователя к выбору факультета.
func (u *User) Reset(now time.Time) {
	u.MoveTo(ChoosingFaculty{}, now)
}
