package model

import "time"

// TaskSummary caches the generated digest for (UserID, TargetDate) together
// with the fingerprint of the task set it was generated from.
type TaskSummary struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      string    `gorm:"uniqueIndex:idx_summary_user_date;type:varchar(64);not null"`
	TargetDate  time.Time `gorm:"uniqueIndex:idx_summary_user_date;not null"`
	Summary     string    `gorm:"type:text;not null"`
	Fingerprint string    `gorm:"type:text;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
