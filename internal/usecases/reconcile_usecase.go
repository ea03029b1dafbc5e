package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/domain/repositories"
	"settleline.backend/pkg/logger"
	"settleline.backend/pkg/metrics"
)

// ReconcileUsecase consumes resolved disputes and reverses the disputed
// order's contribution. History is append-only: a settlement that has been
// dispatched or settled is never mutated; the reversal is carried forward
// as a negative adjustment against the vendor's next settlement.
type ReconcileUsecase struct {
	orderRepo      repositories.OrderRepository
	settlementRepo repositories.SettlementRepository
	adjustmentRepo repositories.AdjustmentRepository
	disputeRepo    repositories.DisputeRepository
	auditRepo      repositories.AuditRepository
	uow            repositories.UnitOfWork
	batchSize      int
}

// NewReconcileUsecase creates a new reconcile usecase
func NewReconcileUsecase(
	orderRepo repositories.OrderRepository,
	settlementRepo repositories.SettlementRepository,
	adjustmentRepo repositories.AdjustmentRepository,
	disputeRepo repositories.DisputeRepository,
	auditRepo repositories.AuditRepository,
	uow repositories.UnitOfWork,
	batchSize int,
) *ReconcileUsecase {
	return &ReconcileUsecase{
		orderRepo:      orderRepo,
		settlementRepo: settlementRepo,
		adjustmentRepo: adjustmentRepo,
		disputeRepo:    disputeRepo,
		auditRepo:      auditRepo,
		uow:            uow,
		batchSize:      batchSize,
	}
}

// ProcessResolved consumes the backlog of resolved, unprocessed disputes
func (u *ReconcileUsecase) ProcessResolved(ctx context.Context) {
	disputes, err := u.disputeRepo.UnprocessedResolved(ctx, u.batchSize)
	if err != nil {
		logger.Error(ctx, "failed to scan resolved disputes", zap.Error(err))
		return
	}

	for _, d := range disputes {
		if err := u.Reconcile(ctx, d); err != nil {
			logger.Error(ctx, "dispute reconciliation failed",
				zap.String("dispute_id", d.ID.String()), zap.Error(err))
		}
	}
}

// Reconcile applies one resolved dispute. Rejections are no-ops. Refunds
// remove the order's value from the vendor's entitlement: in place while
// the settlement is still unpaid, forward otherwise.
func (u *ReconcileUsecase) Reconcile(ctx context.Context, dispute *entities.Dispute) error {
	if dispute.Status != entities.DisputeStatusResolved || dispute.Resolution == nil {
		return domainerrors.BadRequest("dispute is not resolved")
	}

	if *dispute.Resolution == entities.DisputeResolutionRejected {
		return u.disputeRepo.MarkProcessed(ctx, dispute.ID)
	}

	order, err := u.orderRepo.GetByID(ctx, dispute.OrderID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			// Dispute against an order this engine never saw; consume it so
			// the backlog drains
			logger.Warn(ctx, "dispute references unknown order",
				zap.String("dispute_id", dispute.ID.String()),
				zap.String("order_id", dispute.OrderID.String()))
			return u.disputeRepo.MarkProcessed(ctx, dispute.ID)
		}
		return err
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if order.SettlementID == nil {
			// Not aggregated yet: keep it out of every future settlement
			if err := u.orderRepo.MarkRefunded(txCtx, order.ID); err != nil {
				return err
			}
			return u.disputeRepo.MarkProcessed(txCtx, dispute.ID)
		}

		settlement, err := u.settlementRepo.GetByID(txCtx, *order.SettlementID)
		if err != nil {
			return err
		}

		if err := u.reverse(txCtx, dispute, order, settlement); err != nil {
			return err
		}
		return u.disputeRepo.MarkProcessed(txCtx, dispute.ID)
	})
	if err != nil {
		return err
	}

	metrics.DisputesReconciled.Inc()
	return nil
}

// reverse subtracts the order's contribution from the settlement it sits
// in, or creates a forward adjustment when that settlement is already paid
// or paying out.
func (u *ReconcileUsecase) reverse(ctx context.Context, dispute *entities.Dispute, order *entities.Order, settlement *entities.Settlement) error {
	switch settlement.Status {
	case entities.SettlementStatusPending, entities.SettlementStatusHold, entities.SettlementStatusApproved:
		err := u.settlementRepo.ApplyDisputeReversal(ctx, settlement.ID,
			order.GrossAmount, order.CommissionAmount, order.NetAmount)
		if err == nil {
			return u.auditRepo.Create(ctx, &entities.AuditEntry{
				ID:           uuid.New(),
				SettlementID: settlement.ID,
				Actor:        entities.SystemActor,
				FromStatus:   settlement.Status,
				ToStatus:     settlement.Status,
				Reason: fmt.Sprintf("dispute %s refund: reversed order %s (gross=%d commission=%d net=%d)",
					dispute.ID, order.ID, order.GrossAmount, order.CommissionAmount, order.NetAmount),
			})
		}
		if !errors.Is(err, domainerrors.ErrInvalidTransition) {
			return err
		}
		// The settlement got claimed for dispatch between the status read
		// and the reversal; fall through to the forward path
	}

	adjustment := &entities.Adjustment{
		ID:                 uuid.New(),
		VendorID:           settlement.VendorID,
		DisputeID:          dispute.ID,
		OrderID:            order.ID,
		SourceSettlementID: settlement.ID,
		Amount:             -order.NetAmount,
	}
	if err := u.adjustmentRepo.Create(ctx, adjustment); err != nil {
		return err
	}
	return u.auditRepo.Create(ctx, &entities.AuditEntry{
		ID:           uuid.New(),
		SettlementID: settlement.ID,
		Actor:        entities.SystemActor,
		FromStatus:   settlement.Status,
		ToStatus:     settlement.Status,
		Reason: fmt.Sprintf("dispute %s refund: settlement already paid out, %d carried forward against next settlement",
			dispute.ID, adjustment.Amount),
	})
}
