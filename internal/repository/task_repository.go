package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"daily-streak/internal/model"
)

// categoryOrder sorts RED, YELLOW, GREEN regardless of the text collation.
const categoryOrder = "CASE category WHEN 'RED' THEN 0 WHEN 'YELLOW' THEN 1 WHEN 'GREEN' THEN 2 ELSE 3 END"

// TaskFilter narrows List. From and To are both inclusive.
type TaskFilter struct {
	UserID   string
	From     *time.Time
	To       *time.Time
	Statuses []model.TaskStatus
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	task.TargetDate = utc(task.TargetDate)
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return classify("create task", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, classify("find task", err)
	}
	return &task, nil
}

// List returns tasks ordered by priority colour, newest first within a colour.
func (r *TaskRepository) List(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", f.UserID)
	if f.From != nil {
		q = q.Where("target_date >= ?", utc(*f.From))
	}
	if f.To != nil {
		q = q.Where("target_date <= ?", utc(*f.To))
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}

	var tasks []model.Task
	if err := q.Order(categoryOrder).Order("created_at DESC").Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, classify("list tasks", err)
	}
	return tasks, nil
}

// ListDueBetween returns tasks with from <= target_date < to.
func (r *TaskRepository) ListDueBetween(ctx context.Context, userID string, from, to time.Time, statuses []model.TaskStatus) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_date >= ? AND target_date < ? AND status IN ?", userID, utc(from), utc(to), statuses).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, classify("list due tasks", err)
	}
	return tasks, nil
}

// Save writes every column of task.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	task.TargetDate = utc(task.TargetDate)
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return classify("save task", err)
	}
	return nil
}

// MoveActive sets target_date of the listed tasks that are still ACTIVE.
func (r *TaskRepository) MoveActive(ctx context.Context, ids []string, day time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id IN ? AND status = ?", ids, model.StatusActive).
		Update("target_date", utc(day))
	if res.Error != nil {
		return 0, classify("move tasks", res.Error)
	}
	return res.RowsAffected, nil
}

// MoveActiveDueBetween moves the user's ACTIVE tasks with
// from <= target_date < to onto day.
func (r *TaskRepository) MoveActiveDueBetween(ctx context.Context, userID string, from, to, day time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND status = ? AND target_date >= ? AND target_date < ?", userID, model.StatusActive, utc(from), utc(to)).
		Update("target_date", utc(day))
	if res.Error != nil {
		return 0, classify("move overdue tasks", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes a task owned by userID. A missing task is NotFound.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return classify("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return classify("delete task", gorm.ErrRecordNotFound)
	}
	return nil
}
