package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"daily-streak/internal/service"
)

// RolloverOptions holds flags for the rollover command.
type RolloverOptions struct {
	*RootOptions
	At string
}

// NewRolloverCommand creates the rollover command.
func NewRolloverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RolloverOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Close finished days once and exit",
		Long: `Run the end-of-day rollover once.

Every pending day up to yesterday is snapshotted, streaks are updated and
unfinished tasks move to the following day. Running it twice is a no-op.

Example:
  dailystreak rollover
  dailystreak rollover --at 2026-03-11T00:00:05Z --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseAt(opts.At)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.rollover.Run(cmd.Context(), now)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), opts.Format, report)
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "instant to run for (RFC3339, default now)")
	return cmd
}

func parseAt(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", raw, err)
	}
	return t, nil
}

func printReport(w io.Writer, format string, r *service.RolloverReport) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.View())
	}

	fmt.Fprintf(w, "Rollover for %s\n", r.Yesterday.Format(service.DateLayout))
	fmt.Fprintf(w, "  users:      %d\n", r.UsersProcessed)
	fmt.Fprintf(w, "  days:       %d\n", r.DaysClosed)
	fmt.Fprintf(w, "  snapshots:  %d (%d duplicate)\n", r.SnapshotsCreated, r.DuplicateSnapshots)
	fmt.Fprintf(w, "  rolled:     %d\n", r.TasksRolled)
	if r.SkippedDays > 0 {
		fmt.Fprintf(w, "  skipped:    %d days, %d tasks carried\n", r.SkippedDays, r.TasksRecovered)
	}
	for _, f := range r.Failed {
		fmt.Fprintf(w, "  FAILED %s %s: %v\n", f.UserID, f.Day.Format(service.DateLayout), f.Err)
	}
	return nil
}
