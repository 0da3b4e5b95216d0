package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-streak/internal/apperr"
	"daily-streak/internal/model"
)

// SnapshotRepository stores daily completion history. Rows are never updated.
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts snap. If a snapshot for (user, date) already exists the row is
// left as is and a Conflict error is returned.
func (r *SnapshotRepository) Create(ctx context.Context, snap *model.DailySnapshot) error {
	snap.Date = utc(snap.Date)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(snap)
	if res.Error != nil {
		return classify("create snapshot", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.Conflict, "create snapshot", "snapshot already exists").
			With("userId", snap.UserID).
			With("date", snap.Date)
	}
	return nil
}

// ListByUser returns snapshots with from <= date <= to, oldest first.
func (r *SnapshotRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]model.DailySnapshot, error) {
	var snaps []model.DailySnapshot
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, utc(from), utc(to)).
		Order("date ASC").
		Find(&snaps).Error
	if err != nil {
		return nil, classify("list snapshots", err)
	}
	return snaps, nil
}

func (r *SnapshotRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.DailySnapshot{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, classify("count snapshots", err)
	}
	return n, nil
}
