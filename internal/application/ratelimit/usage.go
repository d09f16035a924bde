package ratelimit

import (
	"context"
	"time"

	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// MaxHistoryDays bounds UsageLedger.History.
const MaxHistoryDays = 90

// UsageLedger folds usage events into per-day tallies and reads them back.
type UsageLedger struct {
	repo   apiapp.UsageRepository
	logger logging.Logger
	now    func() time.Time
}

// NewUsageLedger creates a UsageLedger.  now may be nil.
func NewUsageLedger(repo apiapp.UsageRepository, logger logging.Logger, now func() time.Time) *UsageLedger {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if now == nil {
		now = time.Now
	}
	return &UsageLedger{repo: repo, logger: logger.Named("usage_ledger"), now: now}
}

// Handle records ev.  Events that never resolved to an application (missing
// or unknown key) carry nothing to attribute and are skipped.
func (l *UsageLedger) Handle(ctx context.Context, ev *UsageEvent) error {
	if ev == nil || ev.ApplicationID == "" {
		return nil
	}
	at := ev.OccurredAt
	if at.IsZero() {
		at = l.now()
	}
	if err := l.repo.Increment(ctx, ev.ApplicationID, at, ev.Allowed); err != nil {
		return err
	}
	l.logger.Debug("usage recorded",
		logging.String("application_id", ev.ApplicationID),
		logging.Bool("allowed", ev.Allowed),
		logging.Int("status", ev.StatusCode))
	return nil
}

// PublishUsage implements EventPublisher by writing ev straight into the
// ledger.  Used when no message bus is configured.
func (l *UsageLedger) PublishUsage(ctx context.Context, ev *UsageEvent) error {
	return l.Handle(ctx, ev)
}

// History returns the daily tallies of the last days days, today included.
func (l *UsageLedger) History(ctx context.Context, applicationID string, days int) ([]apiapp.DailyUsage, error) {
	if applicationID == "" {
		return nil, errors.InvalidParam("application id is required")
	}
	if days <= 0 || days > MaxHistoryDays {
		return nil, errors.InvalidParam("days must be between 1 and 90")
	}
	today := apiapp.PeriodDay.Start(l.now().UTC())
	return l.repo.ListDaily(ctx, applicationID, today.AddDate(0, 0, 1-days), today.AddDate(0, 0, 1))
}

//Personal.AI order the ending
