package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yumzoom/yumzoom/pkg/errors"
)

// NewMigrateCmd creates the "migrate" command group.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrator := func(cmd *cobra.Command, fn func(m Migrator) error) error {
		return withServices(cmd, func(_ context.Context, _ *Session, s *Services) error {
			if s.Migrator == nil {
				return unavailable("migrator")
			}
			return fn(s.Migrator)
		})
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrator(cmd, func(m Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				PrintSuccess(cmd, "migrations applied")
				return nil
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return errors.InvalidParam("--steps must be positive")
			}
			return migrator(cmd, func(m Migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrator(cmd, func(m Migrator) error {
				version, dirty, err := m.Status()
				if err != nil {
					return err
				}
				return PrintResult(cmd, map[string]interface{}{"version": version, "dirty": dirty})
			})
		},
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.InvalidParam("version must be an integer").WithDetail(args[0])
			}
			return migrator(cmd, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("forced version %d", v))
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, status, force)
	return cmd
}

//Personal.AI order the ending
