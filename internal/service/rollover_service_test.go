package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"daily-streak/internal/lock"
	"daily-streak/internal/model"
	"daily-streak/internal/repository"
	"daily-streak/internal/testutil"
)

var (
	mar8  = testutil.Day(2026, time.March, 8, time.UTC)
	mar9  = testutil.Day(2026, time.March, 9, time.UTC)
	mar10 = testutil.Day(2026, time.March, 10, time.UTC)
	mar11 = testutil.Day(2026, time.March, 11, time.UTC)
	// a few seconds after midnight, when the nightly job fires
	rolloverAt = mar11.Add(5 * time.Second)
)

func newRollover(t *testing.T, s *repository.Store, maxCatchUp int) *RolloverService {
	t.Helper()
	return NewRolloverService(s, lock.NewLocal(), time.UTC, maxCatchUp, zaptest.NewLogger(t).Sugar())
}

func reloadUser(t *testing.T, s *repository.Store, id string) *model.User {
	t.Helper()
	u, err := s.Users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func reloadTask(t *testing.T, s *repository.Store, task *model.Task) *model.Task {
	t.Helper()
	got, err := s.Tasks.FindByID(context.Background(), task.UserID, task.ID)
	require.NoError(t, err)
	return got
}

func snapshotsOf(t *testing.T, s *repository.Store, userID string) []model.DailySnapshot {
	t.Helper()
	snaps, err := s.Snapshots.ListByUser(context.Background(), userID, mar8.AddDate(0, 0, -30), mar11)
	require.NoError(t, err)
	return snaps
}

func TestAnchors(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	a := Anchors(time.Date(2026, 3, 11, 0, 0, 1, 0, loc), loc)

	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, loc), a.Today)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, loc), a.Yesterday)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, loc), a.Tomorrow)
}

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name                 string
		current, longest     int
		full                 bool
		wantCurrent, wantMax int
	}{
		{"extends", 2, 2, true, 3, 3},
		{"extends below record", 1, 5, true, 2, 5},
		{"first day", 0, 0, true, 1, 1},
		{"resets", 4, 6, false, 0, 6},
		{"reset keeps record", 7, 7, false, 0, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, l := nextStreak(tt.current, tt.longest, tt.full)
			assert.Equal(t, tt.wantCurrent, c)
			assert.Equal(t, tt.wantMax, l)
		})
	}
}

func TestRolloverMixedDay(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.CreateUser(t, s, "u1")
	require.NoError(t, s.Users.UpdateStreak(ctx, "u1", 3, 3))

	fix := testutil.CreateTask(t, s, "u1", "Fix bug", model.CategoryRed, model.StatusCompleted, mar10)
	report := testutil.CreateTask(t, s, "u1", "Write report", model.CategoryYellow, model.StatusActive, mar10)

	r, err := newRollover(t, s, 7).Run(ctx, rolloverAt)
	require.NoError(t, err)
	assert.Equal(t, 1, r.SnapshotsCreated)
	assert.Equal(t, 1, r.TasksRolled)
	assert.Empty(t, r.Failed)

	snaps := snapshotsOf(t, s, "u1")
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Date.Equal(mar10))
	assert.Equal(t, 2, snaps[0].TotalTasks)
	assert.Equal(t, 1, snaps[0].CompletedTasks)
	assert.False(t, snaps[0].WasFullyCompleted)

	u := reloadUser(t, s, "u1")
	assert.Equal(t, 0, u.CurrentStreak)
	assert.Equal(t, 3, u.LongestStreak)
	require.NotNil(t, u.LastRolloverDate)
	assert.True(t, u.LastRolloverDate.Equal(mar10))

	moved := reloadTask(t, s, report)
	assert.True(t, moved.TargetDate.Equal(mar11), "got %s", moved.TargetDate)
	assert.Equal(t, model.StatusActive, moved.Status)
	assert.Equal(t, 0, moved.TaskStreak)

	done := reloadTask(t, s, fix)
	assert.True(t, done.TargetDate.Equal(mar10))
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Equal(t, 1, done.TaskStreak)
}

func TestRolloverFullyCompletedExtendsStreak(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.CreateUser(t, s, "u1")
	require.NoError(t, s.Users.UpdateStreak(ctx, "u1", 1, 5))

	testutil.CreateTask(t, s, "u1", "a", model.CategoryRed, model.StatusCompleted, mar10)
	testutil.CreateTask(t, s, "u1", "b", model.CategoryGreen, model.StatusCompleted, mar10.Add(20*time.Hour))

	_, err := newRollover(t, s, 7).Run(ctx, rolloverAt)
	require.NoError(t, err)

	snaps := snapshotsOf(t, s, "u1")
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].WasFullyCompleted)

	u := reloadUser(t, s, "u1")
	assert.Equal(t, 2, u.CurrentStreak)
	assert.Equal(t, 5, u.LongestStreak)
}

func TestRolloverNoEligibleTasks(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.CreateUser(t, s, "u1")
	require.NoError(t, s.Users.UpdateStreak(ctx, "u1", 2, 5))

	archived := testutil.CreateTask(t, s, "u1", "old", model.CategoryRed, model.StatusArchived, mar10)
	testutil.CreateTask(t, s, "u1", "today", model.CategoryRed, model.StatusActive, mar11)

	r, err := newRollover(t, s, 7).Run(ctx, rolloverAt)
	require.NoError(t, err)
	assert.Equal(t, 0, r.SnapshotsCreated)
	assert.Equal(t, 1, r.DaysClosed)

	assert.Empty(t, snapshotsOf(t, s, "u1"))
	u := reloadUser(t, s, "u1")
	assert.Equal(t, 2, u.CurrentStreak)
	assert.Equal(t, 5, u.LongestStreak)
	require.NotNil(t, u.LastRolloverDate)
	assert.True(t, u.LastRolloverDate.Equal(mar10))

	assert.True(t, reloadTask(t, s, archived).TargetDate.Equal(mar10), "archived tasks are never moved")
}

func TestRolloverTwiceForSameDayIsNoop(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.CreateUser(t, s, "u1")
	testutil.CreateTask(t, s, "u1", "a", model.CategoryRed, model.StatusCompleted, mar10)

	svc := newRollover(t, s, 7)
	_, err := svc.Run(ctx, rolloverAt)
	require.NoError(t, err)

	second, err := svc.Run(ctx, rolloverAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, second.DaysClosed)
	assert.Equal(t, 0, second.SnapshotsCreated)

	assert.Len(t, snapshotsOf(t, s, "u1"), 1)
	assert.Equal(t, 1, reloadUser(t, s, "u1").CurrentStreak)
}

func TestRolloverExistingSnapshotIsRejected(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	testutil.CreateUser(t, s, "u1")
	require.NoError(t, s.Users.UpdateStreak(ctx, "u1", 4, 4))
	open := testutil.CreateTask(t, s, "u1", "open", model.CategoryRed, model.StatusActive, mar10)

	// history written by an earlier run that lost its watermark
	require.NoError(t, s.Snapshots.Create(ctx, &model.DailySnapshot{
		UserID: "u1", Date: mar10, TotalTasks: 1, CompletedTasks: 1, WasFullyCompleted: true,
	}))

	r, err := newRollover(t, s, 7).Run(ctx, rolloverAt)
	require.NoError(t, err)
	assert.Equal(t, 1, r.DuplicateSnapshots)
	assert.Equal(t, 0, r.SnapshotsCreated)
	assert.Empty(t, r.Failed)

	snaps := snapshotsOf(t, s, "u1")
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].WasFullyCompleted, "existing history is not overwritten")

	u := reloadUser(t, s, "u1")
	assert.Equal(t, 4, u.CurrentStreak)
	assert.True(t, u.LastRolloverDate.Equal(mar10))

	assert.Equal(t, 1, r.TasksRolled)
	assert.True(t, reloadTask(t, s, open).TargetDate.Equal(mar11), "open tasks still move to the next day")
}

func TestRolloverCatchesUpMissedDays(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.CreateUser(t, s, "busy")
	require.NoError(t, s.Users.SetLastRollover(ctx, "busy", mar8.AddDate(0, 0, -1)))
	carried := testutil.CreateTask(t, s, "busy", "carried", model.CategoryRed, model.StatusActive, mar8)
	testutil.CreateTask(t, s, "busy", "done", model.CategoryGreen, model.StatusCompleted, mar8)

	testutil.CreateUser(t, s, "tidy")
	require.NoError(t, s.Users.SetLastRollover(ctx, "tidy", mar8.AddDate(0, 0, -1)))
	for _, d := range []time.Time{mar8, mar9, mar10} {
		testutil.CreateTask(t, s, "tidy", "daily", model.CategoryYellow, model.StatusCompleted, d)
	}

	r, err := newRollover(t, s, 7).Run(ctx, rolloverAt)
	require.NoError(t, err)
	assert.Equal(t, 6, r.DaysClosed)
	assert.Equal(t, 6, r.SnapshotsCreated)

	busy := snapshotsOf(t, s, "busy")
	require.Len(t, busy, 3)
	assert.Equal(t, 2, busy[0].TotalTasks)
	assert.Equal(t, 1, busy[1].TotalTasks, "carried task counts against the next day")
	assert.Equal(t, 0, busy[2].CompletedTasks)
	assert.True(t, reloadTask(t, s, carried).TargetDate.Equal(mar11))
	assert.Equal(t, 0, reloadUser(t, s, "busy").CurrentStreak)

	tidy := reloadUser(t, s, "tidy")
	assert.Equal(t, 3, tidy.CurrentStreak)
	assert.Equal(t, 3, tidy.LongestStreak)
}

func TestRolloverCarriesTasksPastCatchUpWindow(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	mar1 := testutil.Day(2026, time.March, 1, time.UTC)
	mar3 := testutil.Day(2026, time.March, 3, time.UTC)
	mar12 := testutil.Day(2026, time.March, 12, time.UTC)

	testutil.CreateUser(t, s, "u1")
	require.NoError(t, s.Users.SetLastRollover(ctx, "u1", mar1))
	stale := testutil.CreateTask(t, s, "u1", "stale", model.CategoryRed, model.StatusActive, mar3)
	finished := testutil.CreateTask(t, s, "u1", "finished", model.CategoryGreen, model.StatusCompleted, mar3)

	svc := newRollover(t, s, 2)
	r, err := svc.Run(ctx, rolloverAt)
	require.NoError(t, err)

	assert.Equal(t, 7, r.SkippedDays, "March 2 to 8 fall outside the window")
	assert.Equal(t, 1, r.TasksRecovered)
	assert.Equal(t, 2, r.DaysClosed)
	assert.True(t, reloadTask(t, s, stale).TargetDate.Equal(mar11))
	assert.True(t, reloadTask(t, s, finished).TargetDate.Equal(mar3), "completed tasks keep their date")

	snaps := snapshotsOf(t, s, "u1")
	require.Len(t, snaps, 2, "skipped days get no snapshot")
	assert.True(t, snaps[0].Date.Equal(mar9))
	assert.Equal(t, 1, snaps[0].TotalTasks)

	r, err = svc.Run(ctx, mar12.Add(5*time.Second))
	require.NoError(t, err)
	assert.Zero(t, r.SkippedDays)
	assert.True(t, reloadTask(t, s, stale).TargetDate.Equal(mar12))
}

func TestPendingDays(t *testing.T) {
	svc := newRollover(t, testutil.NewTestStore(t), 2)
	at := func(d time.Time) *time.Time { return &d }

	assert.Equal(t, []time.Time{mar10}, svc.pendingDays(model.User{}, mar10))
	assert.Empty(t, svc.pendingDays(model.User{LastRolloverDate: at(mar10)}, mar10))
	assert.Equal(t, []time.Time{mar10}, svc.pendingDays(model.User{LastRolloverDate: at(mar9)}, mar10))
	assert.Equal(t, []time.Time{mar9, mar10},
		svc.pendingDays(model.User{LastRolloverDate: at(mar8.AddDate(0, 0, -7))}, mar10),
		"catch-up is capped to the most recent days")
}

func TestRolloverFailureIsolatedPerUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.CreateUser(t, s, "bad")
	testutil.CreateUser(t, s, "good")
	testutil.CreateTask(t, s, "bad", "x", model.CategoryRed, model.StatusCompleted, mar10)
	testutil.CreateTask(t, s, "good", "y", model.CategoryRed, model.StatusCompleted, mar10)

	boom := errors.New("disk on fire")
	err := s.DB().Callback().Query().After("gorm:query").Register("test:fail_bad_user", func(tx *gorm.DB) {
		if tx.Statement.Table != "tasks" {
			return
		}
		for _, v := range tx.Statement.Vars {
			if id, ok := v.(string); ok && id == "bad" {
				_ = tx.AddError(boom)
			}
		}
	})
	require.NoError(t, err)

	r, err := newRollover(t, s, 7).Run(ctx, rolloverAt)
	require.NoError(t, err)

	require.Len(t, r.Failed, 1)
	assert.Equal(t, "bad", r.Failed[0].UserID)
	assert.ErrorIs(t, r.Failed[0].Err, boom)
	assert.Equal(t, []string{"bad"}, r.FailedUserIDs())
	assert.Equal(t, 2, r.UsersProcessed)

	assert.Nil(t, reloadUser(t, s, "bad").LastRolloverDate, "failed day stays pending")
	assert.Equal(t, 1, reloadUser(t, s, "good").CurrentStreak)
	assert.Len(t, snapshotsOf(t, s, "good"), 1)
}

func TestRolloverRejectsOverlappingRuns(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	locker := lock.NewLocal()
	release, ok, err := locker.TryLock(ctx, rolloverLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	svc := NewRolloverService(s, locker, time.UTC, 7, zaptest.NewLogger(t).Sugar())
	_, err = svc.Run(ctx, rolloverAt)
	assert.ErrorIs(t, err, ErrRolloverInProgress)
	svc.RunScheduled(ctx)

	release()

	svc.mu.Lock()
	_, err = svc.Run(ctx, rolloverAt)
	assert.ErrorIs(t, err, ErrRolloverInProgress)
	svc.mu.Unlock()

	_, err = svc.Run(ctx, rolloverAt)
	assert.NoError(t, err)
}
