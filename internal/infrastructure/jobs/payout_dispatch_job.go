package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"settleline.backend/internal/usecases"
	"settleline.backend/pkg/logger"
)

// PayoutDispatchJob drives the payout side of the lifecycle: re-approves
// failed settlements whose backoff elapsed, dispatches approved ones, and
// polls the rail for in-flight outcomes.
type PayoutDispatchJob struct {
	dispatcher *usecases.DispatchUsecase
	interval   time.Duration
	stop       chan struct{}
}

func NewPayoutDispatchJob(dispatcher *usecases.DispatchUsecase, interval time.Duration) *PayoutDispatchJob {
	return &PayoutDispatchJob{
		dispatcher: dispatcher,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

func (j *PayoutDispatchJob) Start(ctx context.Context) {
	logger.Info(ctx, "payout dispatch job started", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "payout dispatch job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "payout dispatch job stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *PayoutDispatchJob) Stop() {
	close(j.stop)
}

// RunOnce performs one dispatch pass
func (j *PayoutDispatchJob) RunOnce(ctx context.Context) {
	j.dispatcher.RetryFailedDue(ctx)
	j.dispatcher.DispatchDue(ctx)
	j.dispatcher.PollInFlight(ctx)
}
