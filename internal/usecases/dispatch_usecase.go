package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/domain/repositories"
	"settleline.backend/pkg/logger"
	"settleline.backend/pkg/metrics"
)

// DispatchUsecase submits approved settlements to the external payout rail.
// A settlement is claimed with a status CAS before the network call and the
// call runs outside any lock or transaction, so a slow rail cannot stall
// other vendors.
type DispatchUsecase struct {
	settlements     *SettlementUsecase
	settlementRepo  repositories.SettlementRepository
	vendorRepo      repositories.VendorRepository
	gateway         PayoutGateway
	dispatchTimeout time.Duration
	batchSize       int
}

// NewDispatchUsecase creates a new dispatch usecase
func NewDispatchUsecase(
	settlements *SettlementUsecase,
	settlementRepo repositories.SettlementRepository,
	vendorRepo repositories.VendorRepository,
	gateway PayoutGateway,
	dispatchTimeout time.Duration,
	batchSize int,
) *DispatchUsecase {
	return &DispatchUsecase{
		settlements:     settlements,
		settlementRepo:  settlementRepo,
		vendorRepo:      vendorRepo,
		gateway:         gateway,
		dispatchTimeout: dispatchTimeout,
		batchSize:       batchSize,
	}
}

// DispatchDue claims and submits every approved settlement that is due.
// Each settlement is handled independently; one failure never blocks the
// rest of the batch.
func (u *DispatchUsecase) DispatchDue(ctx context.Context) {
	due, err := u.settlementRepo.DueForDispatch(ctx, time.Now(), u.batchSize)
	if err != nil {
		logger.Error(ctx, "failed to scan approved settlements", zap.Error(err))
		return
	}

	for _, s := range due {
		if err := u.Dispatch(ctx, s); err != nil {
			logger.Error(ctx, "dispatch failed",
				zap.String("settlement_id", s.ID.String()), zap.Error(err))
		}
	}
}

// Dispatch claims one settlement and submits it to the rail. The
// settlement id doubles as the rail idempotency key, so a resubmission
// after an indeterminate outcome cannot double-pay.
func (u *DispatchUsecase) Dispatch(ctx context.Context, settlement *entities.Settlement) error {
	vendor, err := u.vendorRepo.GetByID(ctx, settlement.VendorID)
	if err != nil {
		return err
	}

	// Claim first. Exactly one worker wins the CAS; the call below runs
	// unlocked.
	err = u.settlements.transition(ctx, settlement.ID,
		entities.SettlementStatusApproved, entities.SettlementStatusDispatched,
		entities.SystemActor, "claimed for payout dispatch", repositories.TransitionUpdate{})
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidTransition) {
			return domainerrors.ErrSettlementClaimed
		}
		return err
	}

	// The amount submitted is always read after the claim: a dispute
	// reversal may land on the stored totals between the scan and the CAS,
	// while the settlement is still APPROVED.
	settlement, err = u.settlementRepo.GetByID(ctx, settlement.ID)
	if err != nil {
		return err
	}

	return u.submit(ctx, settlement, vendor)
}

// submit performs the external call for an already-claimed settlement
func (u *DispatchUsecase) submit(ctx context.Context, settlement *entities.Settlement, vendor *entities.Vendor) error {
	callCtx, cancel := context.WithTimeout(ctx, u.dispatchTimeout)
	defer cancel()

	metrics.PayoutsDispatched.Inc()
	submission, err := u.gateway.SubmitPayout(callCtx, settlement.ID.String(),
		vendor.PayoutMethod, vendor.PayoutDestination, settlement.NetAmount)
	if err != nil {
		// Indeterminate: the rail may or may not have accepted. The
		// settlement stays DISPATCHED and the status poll resolves it. A
		// timeout is never treated as a failure for money in flight.
		logger.Warn(ctx, "payout submission outcome unknown, awaiting poll",
			zap.String("settlement_id", settlement.ID.String()), zap.Error(err))
		return nil
	}

	switch submission.State {
	case PayoutStateAccepted:
		return u.settlementRepo.SetRailReference(ctx, settlement.ID, submission.RailReference)
	case PayoutStateRejected:
		return u.fail(ctx, settlement, "payout rail rejected submission: "+submission.Reason)
	default:
		logger.Warn(ctx, "unexpected submission state",
			zap.String("settlement_id", settlement.ID.String()),
			zap.String("state", string(submission.State)))
		return nil
	}
}

// RetryFailedDue re-approves failed settlements whose backoff has elapsed
func (u *DispatchUsecase) RetryFailedDue(ctx context.Context) {
	retryable, err := u.settlementRepo.RetryableFailed(ctx, time.Now(), u.batchSize)
	if err != nil {
		logger.Error(ctx, "failed to scan failed settlements", zap.Error(err))
		return
	}

	for _, s := range retryable {
		err := u.settlements.transition(ctx, s.ID,
			entities.SettlementStatusFailed, entities.SettlementStatusApproved,
			entities.SystemActor,
			fmt.Sprintf("automatic retry %d/%d after backoff", s.PayoutAttemptCount+1, u.settlements.MaxAttempts()),
			repositories.TransitionUpdate{})
		if err != nil && !errors.Is(err, domainerrors.ErrInvalidTransition) {
			logger.Error(ctx, "failed to re-approve settlement",
				zap.String("settlement_id", s.ID.String()), zap.Error(err))
		}
	}
}

// PollInFlight resolves dispatched settlements through the rail's status
// endpoint. Settlements whose submission outcome was lost are resubmitted
// under the same idempotency key.
func (u *DispatchUsecase) PollInFlight(ctx context.Context) {
	inFlight, err := u.settlementRepo.InFlight(ctx, u.batchSize)
	if err != nil {
		logger.Error(ctx, "failed to scan dispatched settlements", zap.Error(err))
		return
	}

	for _, s := range inFlight {
		if s.RailReference == nil {
			vendor, err := u.vendorRepo.GetByID(ctx, s.VendorID)
			if err != nil {
				logger.Error(ctx, "vendor lookup failed during poll",
					zap.String("settlement_id", s.ID.String()), zap.Error(err))
				continue
			}
			if err := u.submit(ctx, s, vendor); err != nil {
				logger.Error(ctx, "resubmission failed",
					zap.String("settlement_id", s.ID.String()), zap.Error(err))
			}
			continue
		}

		state, err := u.gateway.QueryPayoutStatus(ctx, *s.RailReference)
		if err != nil {
			logger.Warn(ctx, "payout status poll failed",
				zap.String("settlement_id", s.ID.String()), zap.Error(err))
			continue
		}
		if err := u.ConfirmOutcome(ctx, s, state, "status poll"); err != nil {
			logger.Error(ctx, "failed to record payout outcome",
				zap.String("settlement_id", s.ID.String()), zap.Error(err))
		}
	}
}

// ConfirmOutcome applies a definitive rail outcome to a dispatched
// settlement. Used by both the poll pass and the rail's callback webhook.
func (u *DispatchUsecase) ConfirmOutcome(ctx context.Context, settlement *entities.Settlement, state PayoutState, source string) error {
	switch state {
	case PayoutStateSettled:
		err := u.settlements.transition(ctx, settlement.ID,
			entities.SettlementStatusDispatched, entities.SettlementStatusSettled,
			entities.SystemActor, "payout confirmed via "+source, repositories.TransitionUpdate{})
		if err == nil {
			metrics.PayoutsSettled.Inc()
		}
		return err
	case PayoutStateFailed, PayoutStateRejected:
		return u.fail(ctx, settlement, "payout failed via "+source)
	default:
		// Still pending at the rail; nothing to record
		return nil
	}
}

// ConfirmByID resolves the settlement then applies the outcome
func (u *DispatchUsecase) ConfirmByID(ctx context.Context, id uuid.UUID, state PayoutState, source string) error {
	settlement, err := u.settlementRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return u.ConfirmOutcome(ctx, settlement, state, source)
}

// fail records a definitive payout failure, schedules the retry backoff and
// exhausts into FAILED_PERMANENT once the attempt budget is spent.
func (u *DispatchUsecase) fail(ctx context.Context, settlement *entities.Settlement, reason string) error {
	metrics.PayoutsFailed.Inc()

	attempt := settlement.PayoutAttemptCount + 1
	nextAttempt := time.Now().Add(u.settlements.Backoff(attempt))
	err := u.settlements.transition(ctx, settlement.ID,
		entities.SettlementStatusDispatched, entities.SettlementStatusFailed,
		entities.SystemActor,
		fmt.Sprintf("%s (attempt %d/%d)", reason, attempt, u.settlements.MaxAttempts()),
		repositories.TransitionUpdate{IncrementAttempts: true, NextAttemptAt: &nextAttempt})
	if err != nil {
		return err
	}

	if attempt >= u.settlements.MaxAttempts() {
		return u.settlements.transition(ctx, settlement.ID,
			entities.SettlementStatusFailed, entities.SettlementStatusFailedPermanent,
			entities.SystemActor, "retry budget exhausted, manual intervention required",
			repositories.TransitionUpdate{})
	}
	return nil
}
