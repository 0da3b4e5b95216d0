package model

import "time"

// DailySnapshot is the append-only completion record of one user's day.
// (UserID, Date) is unique.
type DailySnapshot struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            string    `gorm:"uniqueIndex:idx_snapshot_user_date;type:varchar(64);not null" json:"userId"`
	Date              time.Time `gorm:"uniqueIndex:idx_snapshot_user_date;not null" json:"date"`
	TotalTasks        int       `json:"totalTasks"`
	CompletedTasks    int       `json:"completedTasks"`
	WasFullyCompleted bool      `json:"wasFullyCompleted"`
	CreatedAt         time.Time `json:"createdAt"`
}
