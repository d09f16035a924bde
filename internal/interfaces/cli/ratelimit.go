package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// NewRateLimitCmd creates the "ratelimit" command group.
func NewRateLimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Inspect and maintain public API rate limit buckets",
	}
	cmd.AddCommand(newPurgeCmd(), newUsageCmd(), newHistoryCmd())
	return cmd
}

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete buckets older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, _ *Session, s *Services) error {
				if s.Limiter == nil {
					return unavailable("rate limiter")
				}
				n, err := s.Limiter.PurgeExpired(ctx)
				if err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("purged %d bucket(s)", n))
				return nil
			})
		},
	}
}

type usageTable struct{ d *ratelimit.Decision }

func (t usageTable) MarshalJSON() ([]byte, error) { return json.Marshal(t.d) }

func (t usageTable) TableHeaders() []string {
	return []string{"Application", "Period", "Used", "Limit", "Remaining"}
}

func (t usageTable) TableRows() [][]string {
	return [][]string{
		{t.d.ApplicationID, "hour", strconv.FormatInt(t.d.HourUsed, 10), strconv.Itoa(t.d.HourLimit), strconv.FormatInt(t.d.HourRemaining, 10)},
		{t.d.ApplicationID, "day", strconv.FormatInt(t.d.DayUsed, 10), strconv.Itoa(t.d.DayLimit), strconv.FormatInt(t.d.DayRemaining, 10)},
	}
}

func newUsageCmd() *cobra.Command {
	var appID string
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show the current hour and day usage of an application",
		RunE: func(cmd *cobra.Command, args []string) error {
			if appID == "" {
				return errors.InvalidParam("--app is required")
			}
			return withServices(cmd, func(ctx context.Context, _ *Session, s *Services) error {
				if s.Limiter == nil || s.Applications == nil {
					return unavailable("rate limiter")
				}
				app, err := s.Applications.GetByID(ctx, appID)
				if err != nil {
					return err
				}
				d, err := s.Limiter.Usage(ctx, app)
				if err != nil {
					return err
				}
				return PrintResult(cmd, usageTable{d: d})
			})
		},
	}
	cmd.Flags().StringVar(&appID, "app", "", "API application id (required)")
	return cmd
}

type historyTable []apiapp.DailyUsage

func (t historyTable) TableHeaders() []string {
	return []string{"Day", "Allowed", "Rejected", "Last Seen"}
}

func (t historyTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, d := range t {
		rows = append(rows, []string{
			d.Day.UTC().Format("2006-01-02"),
			strconv.FormatInt(d.Allowed, 10),
			strconv.FormatInt(d.Rejected, 10),
			fmtTime(d.LastSeenAt),
		})
	}
	return rows
}

func newHistoryCmd() *cobra.Command {
	var (
		appID string
		days  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the daily request tallies of an application",
		RunE: func(cmd *cobra.Command, args []string) error {
			if appID == "" {
				return errors.InvalidParam("--app is required")
			}
			return withServices(cmd, func(ctx context.Context, _ *Session, s *Services) error {
				if s.Usage == nil {
					return unavailable("usage ledger")
				}
				rows, err := s.Usage.History(ctx, appID, days)
				if err != nil {
					return err
				}
				return PrintResult(cmd, historyTable(rows))
			})
		},
	}
	cmd.Flags().StringVar(&appID, "app", "", "API application id (required)")
	cmd.Flags().IntVar(&days, "days", 7, "number of days to show, today included")
	return cmd
}

//Personal.AI order the ending
