package models

import "time"

// User is created on first interaction and never deleted by the bot.
type User struct {
	TelegramID string    `firestore:"telegram_id" json:"telegram_id"`
	CreatedAt  time.Time `firestore:"created_at" json:"created_at"`
	LastActive time.Time `firestore:"last_active" json:"last_active"`
}
