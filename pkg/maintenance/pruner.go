// Package maintenance runs periodic housekeeping over stored dispatch and
// delivery records.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hookbridge/hookbridge/pkg/persistence"
)

// Pruner deletes dispatch and delivery records older than the retention
// window on a cron schedule.
type Pruner struct {
	cron        *cron.Cron
	persistence persistence.Persistence
	retention   time.Duration
	logger      *slog.Logger
}

func NewPruner(p persistence.Persistence, schedule string, retention time.Duration, logger *slog.Logger) (*Pruner, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid prune schedule: %w", err)
	}

	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}

	pruner := &Pruner{
		cron:        cron.New(),
		persistence: p,
		retention:   retention,
		logger:      logger.With("module", "pruner", "schedule", schedule),
	}

	if _, err := pruner.cron.AddFunc(schedule, func() {
		pruner.Prune(context.Background())
	}); err != nil {
		return nil, err
	}

	return pruner, nil
}

func (p *Pruner) Start() {
	p.logger.Info("Starting record pruner", "retention", p.retention.String())
	p.cron.Start()
}

func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
	p.logger.Info("Record pruner stopped")
}

// Prune deletes everything older than the retention window.
func (p *Pruner) Prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.retention)

	dispatches, err := p.persistence.Dispatches().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to prune dispatch records", "error", err)
	}

	deliveries, err := p.persistence.Deliveries().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to prune delivery records", "error", err)
	}

	p.logger.InfoContext(ctx, "Pruned old records",
		"dispatches", dispatches,
		"deliveries", deliveries,
		"cutoff", cutoff.Format(time.RFC3339),
	)
}
