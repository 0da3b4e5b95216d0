package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"daily-streak/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure returns the user with the given identity id, creating it on first sight.
// Existing profiles are not overwritten.
func (r *UserRepository) Ensure(ctx context.Context, id, email, name string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("id = ?", id).First(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{ID: id, Email: email, Name: name}
		if err := db.Create(&user).Error; err != nil {
			return nil, classify("create user", err)
		}
		return &user, nil
	default:
		return nil, classify("find user", err)
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, classify("find user", err)
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

// ListWithTelegram returns users that linked a Telegram chat.
func (r *UserRepository) ListWithTelegram(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_chat_id <> 0").Order("id ASC").Find(&users).Error; err != nil {
		return nil, classify("list telegram users", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateStreak(ctx context.Context, id string, current, longest int) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_streak": current,
			"longest_streak": longest,
		}).Error
	return classify("update streak", err)
}

// SetLastRollover moves the rollover watermark of a user to day.
func (r *UserRepository) SetLastRollover(ctx context.Context, id string, day time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("last_rollover_date", utc(day)).Error
	return classify("set rollover watermark", err)
}

// AdjustCompleted adds delta to the completed-task counter, never going below zero.
func (r *UserRepository) AdjustCompleted(ctx context.Context, id string, delta int) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("total_tasks_completed", gorm.Expr("MAX(total_tasks_completed + ?, 0)", delta)).Error
	return classify("adjust completed counter", err)
}

// ProfileUpdate lists the user-editable fields. Nil means unchanged.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	TelegramChatID *int64
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error) {
	updates := map[string]interface{}{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Email != nil {
		updates["email"] = *upd.Email
	}
	if upd.TelegramChatID != nil {
		updates["telegram_chat_id"] = *upd.TelegramChatID
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, classify("update profile", err)
		}
	}
	return r.FindByID(ctx, id)
}
