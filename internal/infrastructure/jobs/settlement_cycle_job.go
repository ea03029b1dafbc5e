package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/domain/repositories"
	"settleline.backend/internal/usecases"
	"settleline.backend/pkg/logger"
)

// SettlementCycleJob is the auto-settlement scheduler. Each tick it
// aggregates every active vendor's most recently closed cycle window and
// drives fresh settlements through auto-review. Firing twice for the same
// boundary is safe: CreateSettlement is idempotent on (vendor, period).
type SettlementCycleJob struct {
	settlements    *usecases.SettlementUsecase
	vendorRepo     repositories.VendorRepository
	settlementRepo repositories.SettlementRepository
	interval       time.Duration
	reviewBatch    int
	stop           chan struct{}
}

func NewSettlementCycleJob(
	settlements *usecases.SettlementUsecase,
	vendorRepo repositories.VendorRepository,
	settlementRepo repositories.SettlementRepository,
	interval time.Duration,
	reviewBatch int,
) *SettlementCycleJob {
	return &SettlementCycleJob{
		settlements:    settlements,
		vendorRepo:     vendorRepo,
		settlementRepo: settlementRepo,
		interval:       interval,
		reviewBatch:    reviewBatch,
		stop:           make(chan struct{}),
	}
}

func (j *SettlementCycleJob) Start(ctx context.Context) {
	logger.Info(ctx, "settlement cycle job started", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "settlement cycle job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "settlement cycle job stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx, time.Now())
		}
	}
}

func (j *SettlementCycleJob) Stop() {
	close(j.stop)
}

// RunOnce performs one scheduler pass as of now
func (j *SettlementCycleJob) RunOnce(ctx context.Context, now time.Time) {
	for _, cycle := range []entities.SettlementCycle{
		entities.SettlementCycleDaily,
		entities.SettlementCycleWeekly,
		entities.SettlementCycleMonthly,
	} {
		j.runCycle(ctx, cycle, now)
	}
	j.reviewPending(ctx)
}

func (j *SettlementCycleJob) runCycle(ctx context.Context, cycle entities.SettlementCycle, now time.Time) {
	vendors, err := j.vendorRepo.ListActive(ctx, cycle)
	if err != nil {
		logger.Error(ctx, "failed to list vendors for cycle",
			zap.String("cycle", string(cycle)), zap.Error(err))
		return
	}

	period := usecases.ClosedPeriod(cycle, now)
	for _, v := range vendors {
		_, err := j.settlements.CreateSettlement(ctx, v.ID, period)
		switch {
		case err == nil:
		case errors.Is(err, domainerrors.ErrNoEligibleOrders):
			// Nothing to settle this window
		case errors.Is(err, domainerrors.ErrDataUnavailable):
			// Fail closed: abandon this vendor's run, next tick retries
			logger.Error(ctx, "order ledger unavailable, run abandoned",
				zap.String("vendor_id", v.ID.String()),
				zap.Time("cycle_start", period.Start))
		default:
			logger.Error(ctx, "settlement aggregation failed",
				zap.String("vendor_id", v.ID.String()), zap.Error(err))
		}
	}
}

// reviewPending drives pending settlements to Approved or Hold. Also picks
// up settlements left Pending while the fraud predicate was unreachable.
// One bounded batch per tick, like the dispatch scans; the remainder waits
// for the next tick.
func (j *SettlementCycleJob) reviewPending(ctx context.Context) {
	status := entities.SettlementStatusPending
	pending, _, err := j.settlementRepo.List(ctx, entities.SettlementFilter{Status: &status, Limit: j.reviewBatch})
	if err != nil {
		logger.Error(ctx, "failed to list pending settlements", zap.Error(err))
		return
	}

	for _, s := range pending {
		if err := j.settlements.AutoReview(ctx, s); err != nil {
			logger.Error(ctx, "auto-review failed",
				zap.String("settlement_id", s.ID.String()), zap.Error(err))
		}
	}
}
