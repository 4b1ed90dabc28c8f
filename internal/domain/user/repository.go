package user

import "context"

// Repository определяет операции хранилища пользователей.
// Реализация находится в infrastructure/persistence/postgres.
type Repository interface {
	// GetByTelegramID возвращает пользователя по Telegram ID.
	// Возвращает shared.ErrUserNotFound, если пользователь не найден.
	GetByTelegramID(ctx context.Context, telegramID TelegramID) (*User, error)

	// Save создаёт пользователя или обновляет его состояние.
	Save(ctx context.Context, u *User) error

	// Count возвращает общее количество пользователей.
	Count(ctx context.Context) (int, error)

	// CountRegistered возвращает количество пользователей, завершивших регистрацию.
	CountRegistered(ctx context.Context) (int, error)
}
