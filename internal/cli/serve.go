package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"daily-streak/internal/api"
	"daily-streak/internal/notify"
	"daily-streak/internal/service"
)

const (
	rolloverJobTimeout = 30 * time.Minute
	digestJobTimeout   = 10 * time.Minute
	shutdownTimeout    = 15 * time.Second
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily jobs",
		Long: `Start the HTTP API together with the scheduled jobs.

The rollover job runs every day at ROLLOVER_TIME. When TELEGRAM_TOKEN is set
a digest is sent to linked chats at DIGEST_TIME.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler := service.NewSchedulerService(a.cfg.Location(), a.log)
	rolloverID, err := scheduler.ScheduleDaily(a.cfg.RolloverTime, func() {
		jobCtx, cancel := context.WithTimeout(ctx, rolloverJobTimeout)
		defer cancel()
		a.rollover.RunScheduled(jobCtx)
	})
	if err != nil {
		return fmt.Errorf("schedule rollover: %w", err)
	}

	if a.cfg.TelegramToken != "" {
		digest, err := notify.NewTelegramDigest(a.cfg.TelegramToken, a.store.Users, a.summaries, a.log)
		if err != nil {
			return err
		}
		if _, err := scheduler.ScheduleDaily(a.cfg.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, digestJobTimeout)
			defer cancel()
			digest.RunScheduled(jobCtx)
		}); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	}

	scheduler.Start()
	defer scheduler.Stop()
	a.log.Infow("scheduler started", "nextRollover", scheduler.Next(rolloverID))

	if a.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Tasks:      a.tasks,
		Summaries:  a.summaries,
		Users:      a.users,
		Rollover:   a.rollover,
		Location:   a.cfg.Location(),
		AdminToken: a.cfg.AdminToken,
		Log:        a.log,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infow("http server listening", "addr", srv.Addr, "env", a.cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	a.log.Info("shutdown complete")
	return nil
}
