package models

import "time"

// Visit is an audit row for a page hit by a signed-in user.
type Visit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Page      string    `gorm:"size:255;not null" json:"page"`
	IP        string    `gorm:"size:45" json:"ip"`
	UserAgent string    `gorm:"size:512" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Visit) TableName() string { return "visits" }
