package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"daily-streak/internal/apperr"
	"daily-streak/internal/generator"
	"daily-streak/internal/model"
	"daily-streak/internal/repository"
)

// Generator produces free text for a prompt.
type Generator interface {
	Complete(ctx context.Context, p generator.Prompt) (string, error)
}

// SummaryResult is what callers of the summary cache receive.
type SummaryResult struct {
	Summary     string    `json:"summary"`
	TargetDate  time.Time `json:"targetDate"`
	TaskCount   int       `json:"taskCount"`
	CreatedAt   time.Time `json:"createdAt"`
	Regenerated bool      `json:"regenerated"`
}

// SummaryService memoises the generated digest of a user's ACTIVE tasks for a
// day, regenerating only when the task fingerprint changes.
type SummaryService struct {
	store    *repository.Store
	gen      Generator
	timeout  time.Duration
	loc      *time.Location
	log      *zap.SugaredLogger
	inflight singleflight.Group
}

func NewSummaryService(store *repository.Store, gen Generator, timeout time.Duration, loc *time.Location, log *zap.SugaredLogger) *SummaryService {
	return &SummaryService{
		store:   store,
		gen:     gen,
		timeout: timeout,
		loc:     loc,
		log:     log,
	}
}

// GetSummary returns the cached digest for (userID, date) or generates a new
// one. Generator failures never surface; a templated summary is stored instead.
// Concurrent calls for the same key share one execution.
func (s *SummaryService) GetSummary(ctx context.Context, userID string, date time.Time) (*SummaryResult, error) {
	start := StartOfDay(date, s.loc)
	key := userID + "|" + start.Format(DateLayout)

	// The shared call outlives any single caller; the generator timeout
	// still bounds it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.inflight.Do(key, func() (interface{}, error) {
		return s.getOrGenerate(shared, userID, start)
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*SummaryResult)
	return &res, nil
}

// RegenerateSummary evicts the cached digest and generates it again.
func (s *SummaryService) RegenerateSummary(ctx context.Context, userID string, date time.Time) (*SummaryResult, error) {
	start := StartOfDay(date, s.loc)
	if err := s.store.Summaries.Delete(ctx, userID, start); err != nil {
		return nil, err
	}
	return s.GetSummary(ctx, userID, start)
}

func (s *SummaryService) getOrGenerate(ctx context.Context, userID string, start time.Time) (*SummaryResult, error) {
	end := EndOfDay(start, s.loc)
	tasks, err := s.store.Tasks.List(ctx, repository.TaskFilter{
		UserID:   userID,
		From:     &start,
		To:       &end,
		Statuses: []model.TaskStatus{model.StatusActive},
	})
	if err != nil {
		return nil, err
	}

	fp, err := fingerprint(tasks)
	if err != nil {
		return nil, err
	}

	cached, err := s.store.Summaries.FindByUserDate(ctx, userID, start)
	if err != nil && !apperr.Is(err, apperr.NotFound) {
		return nil, err
	}
	if cached != nil && cached.Fingerprint == fp {
		return &SummaryResult{
			Summary:    cached.Summary,
			TargetDate: start,
			TaskCount:  len(tasks),
			CreatedAt:  cached.CreatedAt,
		}, nil
	}

	text := s.compose(ctx, userID, tasks)
	saved, err := s.store.Summaries.Upsert(ctx, userID, start, text, fp)
	if err != nil {
		return nil, err
	}

	s.log.Infow("summary regenerated",
		"userId", userID,
		"date", start.Format(DateLayout),
		"tasks", len(tasks),
	)
	return &SummaryResult{
		Summary:     saved.Summary,
		TargetDate:  start,
		TaskCount:   len(tasks),
		CreatedAt:   saved.CreatedAt,
		Regenerated: true,
	}, nil
}

// compose asks the generator for a digest within the configured timeout.
func (s *SummaryService) compose(ctx context.Context, userID string, tasks []model.Task) string {
	if len(tasks) == 0 {
		return noTasksSummary
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.gen.Complete(genCtx, buildPrompt(tasks))
	if err != nil {
		s.log.Warnw("completion failed, using fallback summary", "userId", userID, "error", err)
		return fallbackSummary(countCategories(tasks))
	}
	return cleanReply(reply)
}
