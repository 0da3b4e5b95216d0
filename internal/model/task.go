package model

import (
	"fmt"
	"strings"
	"time"
)

// Category is the priority colour of a task. RED is the most urgent.
type Category string

const (
	CategoryRed    Category = "RED"
	CategoryYellow Category = "YELLOW"
	CategoryGreen  Category = "GREEN"
)

// Rank orders categories RED, YELLOW, GREEN.
func (c Category) Rank() int {
	switch c {
	case CategoryRed:
		return 0
	case CategoryYellow:
		return 1
	case CategoryGreen:
		return 2
	default:
		return 3
	}
}

func (c Category) Valid() bool {
	return c.Rank() < 3
}

// ParseCategory accepts any casing of RED, YELLOW or GREEN.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusActive    TaskStatus = "ACTIVE"
	StatusCompleted TaskStatus = "COMPLETED"
	StatusArchived  TaskStatus = "ARCHIVED"
)

func ParseStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusActive, StatusCompleted, StatusArchived:
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Task is a single dated item on a user's list.
type Task struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string     `gorm:"index:idx_task_user_date;type:varchar(64);not null" json:"userId"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	Category    Category   `gorm:"type:varchar(16);not null" json:"category"`
	Status      TaskStatus `gorm:"type:varchar(16);not null;default:ACTIVE;index" json:"status"`
	TargetDate  time.Time  `gorm:"index:idx_task_user_date;not null" json:"targetDate"`
	CompletedAt *time.Time `json:"completedAt"`
	TaskStreak  int        `gorm:"not null;default:0" json:"taskStreak"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
