// Package cli implements the yumzoom operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// Set with -ldflags "-X .../cli.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

type sessionKey struct{}

// Session is what every subcommand gets after the root pre-run: the loaded
// configuration, a stderr logger and the way to reach the backends.
type Session struct {
	Config  *config.Config
	Logger  logging.Logger
	Factory ServiceFactory
	Output  string
	Timeout time.Duration
}

type globalFlags struct {
	configPath string
	logLevel   string
	output     string
	verbose    bool
	noColor    bool
	timeout    time.Duration
}

// NewRootCommand builds the command tree.  factory is only invoked by
// commands that touch a backend.
func NewRootCommand(factory ServiceFactory) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "yumzoom",
		Short: "YumZoom operator CLI for family analytics and the public API",
		Long: `yumzoom reads family dining analytics, inspects and purges public API
rate limit buckets, and manages the database schema.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "version", "help":
				return nil
			}
			s, err := flags.session(factory)
			if err != nil {
				return err
			}
			cmd.SetContext(withSession(cmd.Context(), s))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default: YUMZOOM_* environment only)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "debug, info, warn or error")
	pf.StringVarP(&flags.output, "output", "o", OutputTable, "table or json")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "shorthand for --log-level debug")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	pf.DurationVar(&flags.timeout, "timeout", 30*time.Second, "deadline for backend calls")

	root.AddCommand(
		NewAnalyticsCmd(),
		NewRateLimitCmd(),
		NewMigrateCmd(),
		NewVersionCmd(),
	)
	return root
}

func (f *globalFlags) session(factory ServiceFactory) (*Session, error) {
	output := strings.ToLower(strings.TrimSpace(f.output))
	if output != OutputTable && output != OutputJSON {
		return nil, errors.InvalidParam(fmt.Sprintf("unknown output format %q", f.output))
	}

	cfg, err := config.LoadOrEnv(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}

	level := strings.ToLower(f.logLevel)
	if f.verbose {
		level = logging.LevelDebug
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("logger initialization failed: %w", err)
	}

	if f.noColor {
		color.NoColor = true
	}
	return &Session{Config: cfg, Logger: logger, Factory: factory, Output: output, Timeout: f.timeout}, nil
}

func withSession(ctx context.Context, s *Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey{}, s)
}

// sessionFrom returns the Session stored by the root pre-run.
func sessionFrom(cmd *cobra.Command) (*Session, error) {
	if ctx := cmd.Context(); ctx != nil {
		if s, ok := ctx.Value(sessionKey{}).(*Session); ok && s != nil {
			return s, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInternal, "command ran without a session")
}

// Execute runs the CLI and prints a failure to stderr.
func Execute(factory ServiceFactory) error {
	root := NewRootCommand(factory)
	err := root.Execute()
	if err != nil {
		PrintError(root, err)
	}
	return err
}

// PrintResult writes data as a table when it can render as one and the
// session asks for tables, as indented JSON otherwise.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	if s, err := sessionFrom(cmd); err == nil && s.Output == OutputTable {
		if tp, ok := data.(tableProvider); ok {
			return renderTable(cmd.OutOrStdout(), tp.TableHeaders(), tp.TableRows())
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes err to stderr in red.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

// PrintSuccess writes msg to stdout in green.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("OK:"), msg)
}

//Personal.AI order the ending
