package bootstrap

import (
	"context"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/internal/interfaces/cli"
)

// CLIServices is the cli.ServiceFactory of the yumzoom binary.  Commands run
// without metrics and without the usage event publisher.
func CLIServices(ctx context.Context, cfg *config.Config, logger logging.Logger) (*cli.Services, error) {
	infra, err := Open(ctx, cfg, logger, nil, nil)
	if err != nil {
		return nil, err
	}
	store, err := infra.OpenExportStore(ctx)
	if err != nil {
		infra.Close()
		return nil, err
	}
	svc := infra.AnalyticsService()
	return &cli.Services{
		Analytics:    svc,
		Exporter:     infra.Exporter(svc, store),
		Limiter:      infra.Limiter(nil),
		Applications: infra.Applications(),
		Usage:        infra.UsageLedger(),
		Migrator:     infra.Migrator(),
		Close:        infra.Close,
	}, nil
}

//Personal.AI order the ending
