package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"daily-streak/internal/apperr"
	"daily-streak/internal/lock"
	"daily-streak/internal/model"
	"daily-streak/internal/repository"
)

// ErrRolloverInProgress is returned when a run is triggered while another
// one holds the lock.
var ErrRolloverInProgress = errors.New("rollover already in progress")

const (
	rolloverLockKey = "daily-streak:rollover"
	rolloverLockTTL = 30 * time.Minute
)

var eligibleStatuses = []model.TaskStatus{model.StatusActive, model.StatusCompleted}

// UserFailure records a user whose day could not be closed.
type UserFailure struct {
	UserID string
	Day    time.Time
	Err    error
}

// RolloverReport describes one invocation.
type RolloverReport struct {
	DayAnchors
	UsersProcessed     int
	DaysClosed         int
	SnapshotsCreated   int
	DuplicateSnapshots int
	TasksRolled        int
	// SkippedDays are days older than the catch-up window; they get no
	// snapshot, only their ACTIVE tasks are carried forward.
	SkippedDays    int
	TasksRecovered int
	Failed         []UserFailure
}

// FailedUserIDs lists users that need operator follow-up.
func (r *RolloverReport) FailedUserIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.UserID)
	}
	return ids
}

// RolloverFailureView is the serialised form of a UserFailure.
type RolloverFailureView struct {
	UserID string `json:"userId"`
	Day    string `json:"day"`
	Error  string `json:"error"`
}

// RolloverReportView is the serialised form of a report, shared by the HTTP
// endpoint and the CLI.
type RolloverReportView struct {
	Today              string                `json:"today"`
	Yesterday          string                `json:"yesterday"`
	Tomorrow           string                `json:"tomorrow"`
	UsersProcessed     int                   `json:"usersProcessed"`
	DaysClosed         int                   `json:"daysClosed"`
	SnapshotsCreated   int                   `json:"snapshotsCreated"`
	DuplicateSnapshots int                   `json:"duplicateSnapshots"`
	TasksRolled        int                   `json:"tasksRolled"`
	SkippedDays        int                   `json:"skippedDays"`
	TasksRecovered     int                   `json:"tasksRecovered"`
	Failed             []RolloverFailureView `json:"failed"`
}

func (r *RolloverReport) View() RolloverReportView {
	v := RolloverReportView{
		Today:              r.Today.Format(DateLayout),
		Yesterday:          r.Yesterday.Format(DateLayout),
		Tomorrow:           r.Tomorrow.Format(DateLayout),
		UsersProcessed:     r.UsersProcessed,
		DaysClosed:         r.DaysClosed,
		SnapshotsCreated:   r.SnapshotsCreated,
		DuplicateSnapshots: r.DuplicateSnapshots,
		TasksRolled:        r.TasksRolled,
		SkippedDays:        r.SkippedDays,
		TasksRecovered:     r.TasksRecovered,
		Failed:             make([]RolloverFailureView, 0, len(r.Failed)),
	}
	for _, f := range r.Failed {
		v.Failed = append(v.Failed, RolloverFailureView{
			UserID: f.UserID,
			Day:    f.Day.Format(DateLayout),
			Error:  f.Err.Error(),
		})
	}
	return v
}

// dayResult is the outcome of closing one (user, day).
type dayResult struct {
	snapshot  *model.DailySnapshot
	duplicate bool
	rolled    int
	recovered int
}

// RolloverService closes out finished days: it snapshots completion, updates
// the day-level streak and moves unfinished tasks forward.
type RolloverService struct {
	store      *repository.Store
	locker     lock.Locker
	loc        *time.Location
	maxCatchUp int
	log        *zap.SugaredLogger
	mu         sync.Mutex
}

func NewRolloverService(store *repository.Store, locker lock.Locker, loc *time.Location, maxCatchUp int, log *zap.SugaredLogger) *RolloverService {
	if maxCatchUp < 1 {
		maxCatchUp = 1
	}
	return &RolloverService{
		store:      store,
		locker:     locker,
		loc:        loc,
		maxCatchUp: maxCatchUp,
		log:        log,
	}
}

// Run closes every pending day up to the day before now for every user.
// A failing user is recorded in the report and does not stop the others.
func (s *RolloverService) Run(ctx context.Context, now time.Time) (*RolloverReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrRolloverInProgress
	}
	defer s.mu.Unlock()

	release, ok, err := s.locker.TryLock(ctx, rolloverLockKey, rolloverLockTTL)
	if err != nil {
		return nil, fmt.Errorf("rollover lock: %w", err)
	}
	if !ok {
		return nil, ErrRolloverInProgress
	}
	defer release()

	anchors := Anchors(now, s.loc)
	report := &RolloverReport{DayAnchors: anchors}

	s.log.Infow("rollover started",
		"yesterday", anchors.Yesterday.Format(DateLayout),
		"today", anchors.Today.Format(DateLayout),
	)

	users, err := s.store.Users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.UsersProcessed++

		days := s.pendingDays(user, anchors.Yesterday)
		sweepFrom, skipped := s.skippedBefore(user, days)
		for i, day := range days {
			var from time.Time
			if i == 0 {
				from = sweepFrom
			}
			res, err := s.closeDay(ctx, user.ID, from, day, day.AddDate(0, 0, 1))
			if err != nil {
				// Later days stay pending; the watermark still points before day.
				report.Failed = append(report.Failed, UserFailure{UserID: user.ID, Day: day, Err: err})
				s.log.Errorw("rollover failed for user",
					"userId", user.ID,
					"day", day.Format(DateLayout),
					"error", err,
				)
				break
			}
			if i == 0 {
				report.SkippedDays += skipped
			}
			report.DaysClosed++
			report.TasksRolled += res.rolled
			report.TasksRecovered += res.recovered
			if res.snapshot != nil {
				report.SnapshotsCreated++
			}
			if res.duplicate {
				report.DuplicateSnapshots++
			}
		}
	}

	if len(report.Failed) > 0 {
		s.log.Warnw("rollover finished with skipped users",
			"failed", report.FailedUserIDs(),
			"users", report.UsersProcessed,
		)
	}
	s.log.Infow("rollover completed",
		"users", report.UsersProcessed,
		"days", report.DaysClosed,
		"snapshots", report.SnapshotsCreated,
		"duplicates", report.DuplicateSnapshots,
		"rolled", report.TasksRolled,
		"skippedDays", report.SkippedDays,
		"recovered", report.TasksRecovered,
	)
	return report, nil
}

// RunScheduled is the cron entry point: errors are logged, never returned.
func (s *RolloverService) RunScheduled(ctx context.Context) {
	if _, err := s.Run(ctx, time.Now()); err != nil {
		if errors.Is(err, ErrRolloverInProgress) {
			s.log.Warnw("rollover skipped, previous run still active")
			return
		}
		s.log.Errorw("rollover error", "error", err)
	}
}

// pendingDays lists the days after the user's watermark up to yesterday,
// oldest first, limited to the most recent maxCatchUp days. A user that was
// never rolled over only gets yesterday.
func (s *RolloverService) pendingDays(user model.User, yesterday time.Time) []time.Time {
	if user.LastRolloverDate == nil {
		return []time.Time{yesterday}
	}
	last := StartOfDay(*user.LastRolloverDate, s.loc)
	if !last.Before(yesterday) {
		return nil
	}

	first := last.AddDate(0, 0, 1)
	if earliest := yesterday.AddDate(0, 0, -(s.maxCatchUp - 1)); first.Before(earliest) {
		first = earliest
	}

	var days []time.Time
	for d := first; !d.After(yesterday); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// skippedBefore reports the days between the watermark and the first pending
// day that fell outside the catch-up window: the start of that gap and its
// length. A zero time means nothing was skipped.
func (s *RolloverService) skippedBefore(user model.User, days []time.Time) (time.Time, int) {
	if user.LastRolloverDate == nil || len(days) == 0 {
		return time.Time{}, 0
	}
	from := StartOfDay(*user.LastRolloverDate, s.loc).AddDate(0, 0, 1)
	if !from.Before(days[0]) {
		return time.Time{}, 0
	}
	n := 0
	for d := from; d.Before(days[0]); d = d.AddDate(0, 0, 1) {
		n++
	}
	return from, n
}

// closeDay snapshots [day, next), updates the streak and moves ACTIVE tasks
// to next, all in one transaction. When sweepFrom is set, ACTIVE tasks due in
// [sweepFrom, day) are first moved onto day.
func (s *RolloverService) closeDay(ctx context.Context, userID string, sweepFrom, day, next time.Time) (dayResult, error) {
	var res dayResult

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		user, err := tx.Users.FindByID(ctx, userID)
		if err != nil {
			return err
		}

		if !sweepFrom.IsZero() {
			recovered, err := tx.Tasks.MoveActiveDueBetween(ctx, userID, sweepFrom, day, day)
			if err != nil {
				return err
			}
			res.recovered = int(recovered)
			if recovered > 0 {
				s.log.Infow("carried tasks past the catch-up window",
					"userId", userID,
					"from", sweepFrom.Format(DateLayout),
					"to", day.Format(DateLayout),
					"tasks", recovered,
				)
			}
		}

		tasks, err := tx.Tasks.ListDueBetween(ctx, userID, day, next, eligibleStatuses)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			s.log.Debugw("no tasks to roll over", "userId", userID, "day", day.Format(DateLayout))
			return tx.Users.SetLastRollover(ctx, userID, day)
		}

		snap := buildSnapshot(userID, day, tasks)
		if err := tx.Snapshots.Create(ctx, snap); err != nil {
			if !apperr.Is(err, apperr.Conflict) {
				return err
			}
			// History and streak stay as recorded; open tasks still move on.
			s.log.Warnw("snapshot already exists, streak left untouched",
				"userId", userID,
				"day", day.Format(DateLayout),
			)
			res.duplicate = true
			moved, err := tx.Tasks.MoveActive(ctx, activeIDs(tasks), next)
			if err != nil {
				return err
			}
			res.rolled = int(moved)
			return tx.Users.SetLastRollover(ctx, userID, day)
		}
		res.snapshot = snap

		current, longest := nextStreak(user.CurrentStreak, user.LongestStreak, snap.WasFullyCompleted)
		if err := tx.Users.UpdateStreak(ctx, userID, current, longest); err != nil {
			return err
		}

		moved, err := tx.Tasks.MoveActive(ctx, activeIDs(tasks), next)
		if err != nil {
			return err
		}
		res.rolled = int(moved)

		s.log.Infow("day closed",
			"userId", userID,
			"day", day.Format(DateLayout),
			"completed", snap.CompletedTasks,
			"total", snap.TotalTasks,
			"streak", current,
			"rolled", moved,
		)
		return tx.Users.SetLastRollover(ctx, userID, day)
	})
	if err != nil {
		return dayResult{}, err
	}
	return res, nil
}

func activeIDs(tasks []model.Task) []string {
	var ids []string
	for _, t := range tasks {
		if t.Status == model.StatusActive {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func buildSnapshot(userID string, day time.Time, tasks []model.Task) *model.DailySnapshot {
	completed := 0
	for _, t := range tasks {
		if t.Status == model.StatusCompleted {
			completed++
		}
	}
	return &model.DailySnapshot{
		UserID:            userID,
		Date:              day,
		TotalTasks:        len(tasks),
		CompletedTasks:    completed,
		WasFullyCompleted: len(tasks) > 0 && completed == len(tasks),
	}
}

// nextStreak extends the streak on a fully completed day and resets it otherwise.
func nextStreak(current, longest int, fullyCompleted bool) (int, int) {
	next := 0
	if fullyCompleted {
		next = current + 1
	}
	return next, max(next, longest)
}
