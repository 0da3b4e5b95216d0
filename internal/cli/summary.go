package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"daily-streak/internal/service"
)

// SummaryOptions holds flags for the summary command.
type SummaryOptions struct {
	*RootOptions
	UserID     string
	Date       string
	Regenerate bool
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a user's task summary for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()

			date, err := service.ParseDate(opts.Date, a.cfg.Location())
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", opts.Date, err)
			}

			get := a.summaries.GetSummary
			if opts.Regenerate {
				get = a.summaries.RegenerateSummary
			}
			res, err := get(cmd.Context(), opts.UserID, date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(out, "%s (%d tasks)\n%s\n", res.TargetDate.Format(service.DateLayout), res.TaskCount, res.Summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "day as YYYY-MM-DD (required)")
	cmd.Flags().BoolVar(&opts.Regenerate, "regenerate", false, "discard the cached summary first")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}
