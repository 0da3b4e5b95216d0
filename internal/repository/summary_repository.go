package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-streak/internal/model"
)

// SummaryRepository stores generated digests keyed by (user, target date).
type SummaryRepository struct {
	db *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) FindByUserDate(ctx context.Context, userID string, day time.Time) (*model.TaskSummary, error) {
	var s model.TaskSummary
	if err := r.db.WithContext(ctx).Where("user_id = ? AND target_date = ?", userID, utc(day)).First(&s).Error; err != nil {
		return nil, classify("find summary", err)
	}
	return &s, nil
}

// Upsert writes text and fingerprint for (user, date) and returns the stored
// row. CreatedAt keeps the value of the first insert.
func (r *SummaryRepository) Upsert(ctx context.Context, userID string, day time.Time, text, fingerprint string) (*model.TaskSummary, error) {
	row := model.TaskSummary{
		UserID:      userID,
		TargetDate:  utc(day),
		Summary:     text,
		Fingerprint: fingerprint,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "target_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"summary", "fingerprint", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, classify("upsert summary", err)
	}
	return r.FindByUserDate(ctx, userID, day)
}

// Delete evicts the cached summary for (user, date). Deleting nothing is fine.
func (r *SummaryRepository) Delete(ctx context.Context, userID string, day time.Time) error {
	err := r.db.WithContext(ctx).Where("user_id = ? AND target_date = ?", userID, utc(day)).
		Delete(&model.TaskSummary{}).Error
	return classify("delete summary", err)
}
