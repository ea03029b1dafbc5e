package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"settleline.backend/internal/usecases"
	"settleline.backend/pkg/logger"
)

// DisputeReconcileJob drains the backlog of resolved disputes
type DisputeReconcileJob struct {
	reconciler *usecases.ReconcileUsecase
	interval   time.Duration
	stop       chan struct{}
}

func NewDisputeReconcileJob(reconciler *usecases.ReconcileUsecase, interval time.Duration) *DisputeReconcileJob {
	return &DisputeReconcileJob{
		reconciler: reconciler,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

func (j *DisputeReconcileJob) Start(ctx context.Context) {
	logger.Info(ctx, "dispute reconcile job started", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "dispute reconcile job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "dispute reconcile job stopped")
			return
		case <-ticker.C:
			j.reconciler.ProcessResolved(ctx)
		}
	}
}

func (j *DisputeReconcileJob) Stop() {
	close(j.stop)
}
