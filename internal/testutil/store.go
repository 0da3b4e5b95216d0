// Package testutil provides database-backed fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"daily-streak/internal/model"
	"daily-streak/internal/repository"
)

// NewTestStore opens a SQLite database in a per-test directory with all
// migrations applied. It is closed when the test completes.
func NewTestStore(t *testing.T) *repository.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := repository.NewDB(dsn, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	s := repository.NewStore(db)

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// CreateUser inserts a user with the given id.
func CreateUser(t *testing.T, s *repository.Store, id string) *model.User {
	t.Helper()

	u, err := s.Users.Ensure(context.Background(), id, id+"@example.com", id)
	if err != nil {
		t.Fatalf("creating user %s: %v", id, err)
	}
	return u
}

// CreateTask inserts a task for userID due on day.
func CreateTask(t *testing.T, s *repository.Store, userID, title string, cat model.Category, status model.TaskStatus, day time.Time) *model.Task {
	t.Helper()

	task := &model.Task{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Category:   cat,
		Status:     status,
		TargetDate: day,
	}
	if status == model.StatusCompleted {
		done := day.Add(12 * time.Hour)
		task.CompletedAt = &done
		task.TaskStreak = 1
	}
	if err := s.Tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("creating task %q: %v", title, err)
	}
	return task
}

// Day returns midnight of the given date in loc.
func Day(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
