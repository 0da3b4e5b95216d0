package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"daily-streak/internal/apperr"
	"daily-streak/internal/model"
	"daily-streak/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Category    string
	TargetDate  time.Time
}

// TaskUpdate holds the editable fields. Nil means unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Category    *string
	TargetDate  *time.Time
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store *repository.Store
	loc   *time.Location
	now   func() time.Time
}

func NewTaskService(store *repository.Store, loc *time.Location) *TaskService {
	return &TaskService{store: store, loc: loc, now: time.Now}
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.New(apperr.Invalid, "create task", "title is required")
	}
	cat, err := model.ParseCategory(input.Category)
	if err != nil {
		return nil, apperr.Wrap(apperr.Invalid, "create task", err)
	}
	if input.TargetDate.IsZero() {
		return nil, apperr.New(apperr.Invalid, "create task", "targetDate is required")
	}

	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    cat,
		Status:      model.StatusActive,
		TargetDate:  StartOfDay(input.TargetDate, s.loc),
	}
	if err := s.store.Tasks.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns the user's tasks, optionally limited to one calendar day
// (inclusive window) and one status.
func (s *TaskService) ListTasks(ctx context.Context, userID string, date *time.Time, status *model.TaskStatus) ([]model.Task, error) {
	f := repository.TaskFilter{UserID: userID}
	if date != nil {
		start, end := StartOfDay(*date, s.loc), EndOfDay(*date, s.loc)
		f.From, f.To = &start, &end
	}
	if status != nil {
		f.Statuses = []model.TaskStatus{*status}
	}
	return s.store.Tasks.List(ctx, f)
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.store.Tasks.FindByID(ctx, userID, taskID)
}

func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, upd TaskUpdate) (*model.Task, error) {
	task, err := s.store.Tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperr.New(apperr.Invalid, "update task", "title must not be empty")
		}
		task.Title = title
	}
	if upd.Description != nil {
		task.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Category != nil {
		cat, err := model.ParseCategory(*upd.Category)
		if err != nil {
			return nil, apperr.Wrap(apperr.Invalid, "update task", err)
		}
		task.Category = cat
	}
	if upd.TargetDate != nil {
		task.TargetDate = StartOfDay(*upd.TargetDate, s.loc)
	}
	if err := s.store.Tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleCompletion flips a task between ACTIVE and COMPLETED. Completing bumps
// the task streak and the user's completed counter; reopening only lowers the
// counter.
func (s *TaskService) ToggleCompletion(ctx context.Context, userID, taskID string) (*model.Task, error) {
	var task *model.Task
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		var err error
		task, err = tx.Tasks.FindByID(ctx, userID, taskID)
		if err != nil {
			return err
		}

		delta := -1
		if task.Status != model.StatusCompleted {
			now := s.now().UTC()
			task.Status = model.StatusCompleted
			task.CompletedAt = &now
			task.TaskStreak++
			delta = 1
		} else {
			task.Status = model.StatusActive
			task.CompletedAt = nil
		}

		if err := tx.Tasks.Save(ctx, task); err != nil {
			return err
		}
		return tx.Users.AdjustCompleted(ctx, userID, delta)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) ArchiveTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.setStatus(ctx, userID, taskID, model.StatusArchived)
}

// RestoreTask brings an archived task back as ACTIVE.
func (s *TaskService) RestoreTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.setStatus(ctx, userID, taskID, model.StatusActive)
}

func (s *TaskService) setStatus(ctx context.Context, userID, taskID string, status model.TaskStatus) (*model.Task, error) {
	task, err := s.store.Tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	task.Status = status
	if err := s.store.Tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task permanently.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.store.Tasks.Delete(ctx, userID, taskID)
}
