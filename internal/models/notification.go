package models

import (
	"time"

	"tablero/internal/domain"
)

// Notification is a broadcast message shown to every signed-in user.
// At most one row is active at a time; publishing a new one deactivates the
// rest. Rows are never deleted, the table is the broadcast history.
type Notification struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	Status        string    `gorm:"size:20;not null;index" json:"status"` // active | inactive
	CreatedByID   uint      `gorm:"not null" json:"created_by_id"`
	CreatedByName string    `gorm:"size:255" json:"created_by_name"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) IsActive() bool { return n.Status == domain.NotificationStatusActive }

// NotificationView records the first time a user saw a broadcast. The
// (notification_id, user_id) pair is unique; repeat views never add rows.
type NotificationView struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	NotificationID uint      `gorm:"not null;uniqueIndex:idx_notification_views_pair" json:"notification_id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_notification_views_pair" json:"user_id"`
	ViewedAt       time.Time `gorm:"not null;index" json:"viewed_at"`
}

func (NotificationView) TableName() string { return "notification_views" }
