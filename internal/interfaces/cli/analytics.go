package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yumzoom/yumzoom/internal/application/analytics"
	domain "github.com/yumzoom/yumzoom/internal/domain/analytics"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

type analyticsOptions struct {
	userID   string
	rng      string
	limit    int
	compare  bool
	memberID string
	format   string
	outDir   string
}

// query rejects unknown ranges instead of falling back, so a mistyped flag
// is reported rather than silently answered for the default window.
func (o *analyticsOptions) query() (analytics.Query, error) {
	if o.userID == "" {
		return analytics.Query{}, errors.InvalidParam("--user is required")
	}
	if !domain.IsKnownRange(o.rng) {
		return analytics.Query{}, errors.InvalidParam("--range must be week, month, quarter or year").WithDetail(o.rng)
	}
	if o.limit < 0 {
		return analytics.Query{}, errors.InvalidParam("--limit must not be negative")
	}
	return analytics.Query{
		UserID:   o.userID,
		Range:    o.rng,
		Limit:    o.limit,
		Compare:  o.compare,
		MemberID: o.memberID,
	}, nil
}

// NewAnalyticsCmd creates the "analytics" command group.
func NewAnalyticsCmd() *cobra.Command {
	opts := &analyticsOptions{}
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Compute family analytics views",
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.userID, "user", "u", "", "account owner whose family is analysed (required)")
	pf.StringVarP(&opts.rng, "range", "r", "month", "time range: week, month, quarter, year")
	pf.IntVar(&opts.limit, "limit", 0, "popular restaurant limit (default from config)")
	pf.BoolVar(&opts.compare, "compare", false, "compute trends against the previous window")
	pf.StringVar(&opts.memberID, "member", "", "limit member activity to one family member")

	view := func(use, short string, run func(ctx context.Context, cmd *cobra.Command, svc analytics.Service, q analytics.Query) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				q, err := opts.query()
				if err != nil {
					return err
				}
				return withServices(cmd, func(ctx context.Context, _ *Session, s *Services) error {
					if s.Analytics == nil {
						return unavailable("analytics")
					}
					return run(ctx, cmd, s.Analytics, q)
				})
			},
		}
	}

	cmd.AddCommand(
		view("dashboard", "Show every view for the range", runDashboard),
		view("insights", "Show the family summary", func(ctx context.Context, cmd *cobra.Command, svc analytics.Service, q analytics.Query) error {
			in, err := svc.GetInsights(ctx, q)
			if err != nil {
				return err
			}
			return PrintResult(cmd, insightsTable{in: in})
		}),
		view("popular", "Rank restaurants by visits", func(ctx context.Context, cmd *cobra.Command, svc analytics.Service, q analytics.Query) error {
			list, err := svc.GetPopularRestaurants(ctx, q)
			if err != nil {
				return err
			}
			return PrintResult(cmd, popularTable(list))
		}),
		view("cuisines", "Show cuisine preferences", func(ctx context.Context, cmd *cobra.Command, svc analytics.Service, q analytics.Query) error {
			list, err := svc.GetCuisinePreferences(ctx, q)
			if err != nil {
				return err
			}
			return PrintResult(cmd, cuisineTable(list))
		}),
		view("members", "Show per-member activity", func(ctx context.Context, cmd *cobra.Command, svc analytics.Service, q analytics.Query) error {
			page, err := svc.GetMemberActivity(ctx, q)
			if err != nil {
				return err
			}
			if page == nil {
				return PrintResult(cmd, memberTable(nil))
			}
			return PrintResult(cmd, memberTable(page.Members))
		}),
		newExportCmd(opts),
	)
	return cmd
}

func runDashboard(ctx context.Context, cmd *cobra.Command, svc analytics.Service, q analytics.Query) error {
	d, err := svc.GetDashboard(ctx, q)
	if err != nil {
		return err
	}
	sess, _ := sessionFrom(cmd)
	if sess == nil || sess.Output == OutputJSON || d == nil {
		return PrintResult(cmd, d)
	}

	out := cmd.OutOrStdout()
	heading := color.New(color.Bold)
	heading.Fprintf(out, "Family analytics (%s): %s to %s\n\n", d.Window.Range, d.Window.StartISO(), d.Window.EndISO())
	sections := []struct {
		title string
		table tableProvider
	}{
		{"Summary", insightsTable{in: &d.Insights}},
		{"Popular restaurants", popularTable(d.PopularRestaurants)},
		{"Cuisine preferences", cuisineTable(d.CuisinePreferences)},
		{"Member activity", memberTable(d.MemberActivity)},
	}
	for _, s := range sections {
		heading.Fprintln(out, s.title)
		if err := renderTable(out, s.table.TableHeaders(), s.table.TableRows()); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

func newExportCmd(opts *analyticsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the dashboard as CSV or JSON",
		Long:  "Renders the dashboard and writes it to --out.  When object storage is\nconfigured the file is also uploaded and a time-limited link is printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.query()
			if err != nil {
				return err
			}
			format, err := analytics.ParseExportFormat(opts.format)
			if err != nil {
				return err
			}
			return withServices(cmd, func(ctx context.Context, sess *Session, s *Services) error {
				if s.Exporter == nil {
					return unavailable("export")
				}
				res, err := s.Exporter.Export(ctx, q, format)
				if err != nil {
					return err
				}
				path := filepath.Join(opts.outDir, res.FileName)
				if err := os.WriteFile(path, res.Data, 0o644); err != nil {
					return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to write export")
				}
				sess.Logger.Info("export written", logging.String("path", path), logging.Int("bytes", res.Size))
				PrintSuccess(cmd, fmt.Sprintf("wrote %s (%d bytes)", path, res.Size))
				if res.URL != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "download: %s (expires %s)\n", res.URL, res.ExpiresAt.Format("2006-01-02 15:04 MST"))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "export format: csv, json")
	cmd.Flags().StringVar(&opts.outDir, "out", ".", "directory the export is written to")
	return cmd
}

//Personal.AI order the ending
