package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"daily-streak/internal/model"
)

// NewDB opens a SQLite database and runs migrations. All timestamps are
// written in UTC so that range comparisons on stored values stay ordered.
func NewDB(dsn string, log *zap.SugaredLogger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "daily_streak.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		zap.NewStdLog(log.Desugar()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  dbLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Task{}, &model.DailySnapshot{}, &model.TaskSummary{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// Store bundles the repositories that share one *gorm.DB, so a service can
// run several of them inside a single transaction.
type Store struct {
	db        *gorm.DB
	Users     *UserRepository
	Tasks     *TaskRepository
	Snapshots *SnapshotRepository
	Summaries *SummaryRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Users:     NewUserRepository(db),
		Tasks:     NewTaskRepository(db),
		Snapshots: NewSnapshotRepository(db),
		Summaries: NewSummaryRepository(db),
	}
}

// InTx runs fn with a Store bound to one transaction. Returning an error
// from fn rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the handle, mainly for tests that need to install callbacks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
