package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"daily-streak/internal/config"
	"daily-streak/internal/generator"
	"daily-streak/internal/lock"
	"daily-streak/internal/repository"
	"daily-streak/internal/service"
)

// app is the fully wired process: configuration, storage and services.
type app struct {
	cfg   config.Config
	log   *zap.SugaredLogger
	store *repository.Store

	tasks     *service.TaskService
	users     *service.UserService
	summaries *service.SummaryService
	rollover  *service.RolloverService

	closers []func() error
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	store := repository.NewStore(db)
	a := &app{cfg: cfg, log: log, store: store}
	a.closers = append(a.closers, store.Close)

	gen, err := generator.New(generator.Config{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("generator: %w", err)
	}
	if !gen.Enabled() {
		log.Warn("LLM_API_KEY is not set, summaries use the fallback template")
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc := cfg.Location()
	a.tasks = service.NewTaskService(store, loc)
	a.users = service.NewUserService(store, loc)
	a.summaries = service.NewSummaryService(store, gen, cfg.LLMTimeout(), loc, log)
	a.rollover = service.NewRolloverService(store, locker, loc, cfg.MaxCatchUpDays, log)
	return a, nil
}

// newLocker uses Redis when REDIS_ADDR is set so replicas share one rollover.
func (a *app) newLocker(ctx context.Context) (lock.Locker, error) {
	if a.cfg.RedisAddr == "" {
		return lock.NewLocal(), nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := lock.DialRedis(dialCtx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.log.Infow("using redis rollover lock", "addr", a.cfg.RedisAddr)
	return lock.NewRedis(client), nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warnw("close", "error", err)
		}
	}
	_ = a.log.Sync()
}
