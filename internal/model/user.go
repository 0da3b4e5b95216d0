package model

import "time"

// User is the owner of tasks and the carrier of the day-level streak.
type User struct {
	ID                  string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email               string     `gorm:"index" json:"email"`
	Name                string     `json:"name"`
	TelegramChatID      int64      `gorm:"index" json:"telegramChatId,omitempty"`
	CurrentStreak       int        `gorm:"not null;default:0" json:"currentStreak"`
	LongestStreak       int        `gorm:"not null;default:0" json:"longestStreak"`
	TotalTasksCompleted int        `gorm:"not null;default:0" json:"totalTasksCompleted"`
	LastRolloverDate    *time.Time `json:"lastRolloverDate,omitempty"` // last calendar day closed by rollover
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}
