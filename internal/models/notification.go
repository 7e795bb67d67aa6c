package models

import "time"

// Notification уведомление пользователю платформы.
type Notification struct {
	ID        int64     `json:"notification_id,omitempty"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
