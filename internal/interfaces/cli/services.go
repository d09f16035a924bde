package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yumzoom/yumzoom/internal/application/analytics"
	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// Migrator manages the database schema.
type Migrator interface {
	Up() error
	Down(steps int) error
	Status() (version uint, dirty bool, err error)
	Force(version int) error
}

// Services are the backends a command may need.  Fields a factory cannot
// provide are left nil and the commands using them fail with a clear error.
type Services struct {
	Analytics    analytics.Service
	Exporter     *analytics.Exporter
	Limiter      ratelimit.Service
	Applications apiapp.Repository
	Usage        *ratelimit.UsageLedger
	Migrator     Migrator
	Close        func()
}

// ServiceFactory builds Services from the loaded configuration.
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Services, error)

// withServices builds the services, runs fn under the global timeout and
// releases the services afterwards.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, sess *Session, svc *Services) error) error {
	sess, err := sessionFrom(cmd)
	if err != nil {
		return err
	}
	if sess.Factory == nil {
		return errors.New(errors.ErrCodeNotImplemented, "command requires backend services")
	}

	ctx := cmd.Context()
	if sess.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sess.Timeout)
		defer cancel()
	}

	svc, err := sess.Factory(ctx, sess.Config, sess.Logger)
	if err != nil {
		return err
	}
	if svc.Close != nil {
		defer svc.Close()
	}
	return fn(ctx, sess, svc)
}

func unavailable(what string) error {
	return errors.New(errors.ErrCodeServiceUnavailable, what+" is not configured")
}

//Personal.AI order the ending
