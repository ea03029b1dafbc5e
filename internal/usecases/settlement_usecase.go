package usecases

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/domain/repositories"
	"settleline.backend/pkg/logger"
	"settleline.backend/pkg/metrics"
)

// SettlementUsecase owns settlement aggregation and the lifecycle state
// machine. All transitions pass through here so every one of them leaves an
// audit entry.
type SettlementUsecase struct {
	orderRepo      repositories.OrderRepository
	vendorRepo     repositories.VendorRepository
	settlementRepo repositories.SettlementRepository
	adjustmentRepo repositories.AdjustmentRepository
	auditRepo      repositories.AuditRepository
	uow            repositories.UnitOfWork
	fraud          FraudPredicate
	maxAttempts    int
	backoffBase    time.Duration
	backoffMax     time.Duration
	dueDateGrace   time.Duration

	// Collapses concurrent CreateSettlement calls for the same
	// (vendor, period) key; the DB unique index is the backstop.
	group singleflight.Group
}

// NewSettlementUsecase creates a new settlement usecase
func NewSettlementUsecase(
	orderRepo repositories.OrderRepository,
	vendorRepo repositories.VendorRepository,
	settlementRepo repositories.SettlementRepository,
	adjustmentRepo repositories.AdjustmentRepository,
	auditRepo repositories.AuditRepository,
	uow repositories.UnitOfWork,
	fraud FraudPredicate,
	maxAttempts int,
	backoffBase, backoffMax, dueDateGrace time.Duration,
) *SettlementUsecase {
	return &SettlementUsecase{
		orderRepo:      orderRepo,
		vendorRepo:     vendorRepo,
		settlementRepo: settlementRepo,
		adjustmentRepo: adjustmentRepo,
		auditRepo:      auditRepo,
		uow:            uow,
		fraud:          fraud,
		maxAttempts:    maxAttempts,
		backoffBase:    backoffBase,
		backoffMax:     backoffMax,
		dueDateGrace:   dueDateGrace,
	}
}

// CreateSettlement aggregates a vendor's eligible orders for one cycle into
// a settlement. Idempotent on (vendorID, period): a replay returns the
// existing settlement with identical totals. Returns ErrNoEligibleOrders
// when the window holds nothing to settle (no zero-value settlements).
//
// Order marking and settlement creation happen in a single transaction, so
// "orders claimed but no settlement persisted" (or the reverse) cannot
// occur.
func (u *SettlementUsecase) CreateSettlement(ctx context.Context, vendorID uuid.UUID, period entities.CyclePeriod) (*entities.Settlement, error) {
	key := vendorID.String() + "|" + period.Start.UTC().Format(time.RFC3339) + "|" + period.End.UTC().Format(time.RFC3339)

	result, err, _ := u.group.Do(key, func() (interface{}, error) {
		return u.createSettlement(ctx, vendorID, period)
	})
	if err != nil {
		return nil, err
	}
	return result.(*entities.Settlement), nil
}

func (u *SettlementUsecase) createSettlement(ctx context.Context, vendorID uuid.UUID, period entities.CyclePeriod) (*entities.Settlement, error) {
	// Replay of the same (vendor, period) returns the existing record
	existing, err := u.settlementRepo.GetByVendorAndPeriod(ctx, vendorID, period)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	vendor, err := u.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsActive {
		return nil, domainerrors.ErrVendorInactive
	}

	// Fail closed: ledger unreachable means no settlement this run
	orders, err := u.orderRepo.EligibleOrders(ctx, vendorID, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domainerrors.ErrNoEligibleOrders
	}

	var gross, commission int64
	for _, o := range orders {
		o.CommissionAmount, o.NetAmount = ComputeCommission(o, vendor)
		gross += o.GrossAmount
		commission += o.CommissionAmount
	}

	now := time.Now()
	settlement := &entities.Settlement{
		ID:                 uuid.New(),
		VendorID:           vendorID,
		CycleStart:         period.Start,
		CycleEnd:           period.End,
		GrossAmount:        gross,
		CommissionDeducted: commission,
		NetAmount:          gross - commission,
		Status:             entities.SettlementStatusPending,
		DueDate:            period.End.Add(u.dueDateGrace),
		CreatedAt:          now,
		LastTransitionAt:   now,
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		// Carried-forward dispute reversals are consumed by this settlement
		adjustments, err := u.adjustmentRepo.PendingByVendor(txCtx, vendorID)
		if err != nil {
			return err
		}
		var adjusted int64
		adjustmentIDs := make([]uuid.UUID, 0, len(adjustments))
		for _, a := range adjustments {
			adjusted += a.Amount
			adjustmentIDs = append(adjustmentIDs, a.ID)
		}
		settlement.AdjustmentApplied = adjusted
		settlement.NetAmount += adjusted

		if err := u.settlementRepo.Create(txCtx, settlement); err != nil {
			return err
		}
		if err := u.orderRepo.AssignToSettlement(txCtx, settlement.ID, orders); err != nil {
			return err
		}
		if err := u.adjustmentRepo.MarkApplied(txCtx, adjustmentIDs, settlement.ID); err != nil {
			return err
		}
		return u.auditRepo.Create(txCtx, &entities.AuditEntry{
			ID:           uuid.New(),
			SettlementID: settlement.ID,
			Actor:        entities.SystemActor,
			ToStatus:     entities.SettlementStatusPending,
			Reason: fmt.Sprintf("aggregated %d orders: gross=%d commission=%d adjustments=%d net=%d",
				len(orders), gross, commission, adjusted, settlement.NetAmount),
		})
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) || errors.Is(err, domainerrors.ErrOrderAlreadySettled) {
			// Lost the race to a concurrent run; its settlement is ours too
			return u.settlementRepo.GetByVendorAndPeriod(ctx, vendorID, period)
		}
		return nil, err
	}

	metrics.SettlementsCreated.Inc()
	logger.Info(ctx, "settlement created",
		zap.String("settlement_id", settlement.ID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.Int64("net_amount", settlement.NetAmount),
		zap.Int("orders", len(orders)))

	settlement.IncludedOrders = orders
	return settlement, nil
}

// AutoReview drives a pending settlement to Approved or Hold. Approval is
// automatic only when the vendor is unflagged, the fraud predicate trusts
// them, the payout destination parses, and net meets the vendor's minimum
// payout threshold. Anything else is a Hold that a human has to resolve.
func (u *SettlementUsecase) AutoReview(ctx context.Context, settlement *entities.Settlement) error {
	if settlement.Status != entities.SettlementStatusPending {
		return domainerrors.ErrInvalidTransition
	}

	vendor, err := u.vendorRepo.GetByID(ctx, settlement.VendorID)
	if err != nil {
		return err
	}

	if vendor.FraudFlag {
		return u.transition(ctx, settlement.ID, entities.SettlementStatusPending, entities.SettlementStatusHold,
			entities.SystemActor, "vendor flagged for fraud review", repositories.TransitionUpdate{})
	}

	trusted, err := u.fraud.IsVendorTrusted(ctx, vendor.ID)
	if err != nil {
		// Predicate unreachable: leave the settlement Pending and let the
		// next scheduler tick retry. Auto-approving blind would defeat the
		// fraud gate; auto-holding would page a human for an outage.
		logger.Warn(ctx, "fraud predicate unavailable, deferring review",
			zap.String("settlement_id", settlement.ID.String()), zap.Error(err))
		return nil
	}
	if !trusted {
		return u.transition(ctx, settlement.ID, entities.SettlementStatusPending, entities.SettlementStatusHold,
			entities.SystemActor, "fraud predicate rejected vendor", repositories.TransitionUpdate{})
	}

	if !validDestination(vendor) {
		return u.transition(ctx, settlement.ID, entities.SettlementStatusPending, entities.SettlementStatusHold,
			entities.SystemActor, "invalid destination", repositories.TransitionUpdate{})
	}

	if settlement.NetAmount < vendor.MinPayoutThreshold {
		return u.transition(ctx, settlement.ID, entities.SettlementStatusPending, entities.SettlementStatusHold,
			entities.SystemActor,
			fmt.Sprintf("net %d below minimum payout threshold %d", settlement.NetAmount, vendor.MinPayoutThreshold),
			repositories.TransitionUpdate{})
	}

	return u.transition(ctx, settlement.ID, entities.SettlementStatusPending, entities.SettlementStatusApproved,
		entities.SystemActor, "auto-approved", repositories.TransitionUpdate{})
}

// Approve is the manual override: Pending or Hold -> Approved. A
// justification note is mandatory for Hold releases.
func (u *SettlementUsecase) Approve(ctx context.Context, id uuid.UUID, actor, note string) error {
	settlement, err := u.settlementRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	switch settlement.Status {
	case entities.SettlementStatusPending:
		if note == "" {
			note = "approved by admin"
		}
		return u.transition(ctx, id, entities.SettlementStatusPending, entities.SettlementStatusApproved, actor, note, repositories.TransitionUpdate{})
	case entities.SettlementStatusHold:
		if strings.TrimSpace(note) == "" {
			return domainerrors.BadRequest("a justification note is required to release a hold")
		}
		return u.transition(ctx, id, entities.SettlementStatusHold, entities.SettlementStatusApproved, actor, note, repositories.TransitionUpdate{})
	default:
		return domainerrors.ErrInvalidTransition
	}
}

// Hold parks a pending settlement for manual review
func (u *SettlementUsecase) Hold(ctx context.Context, id uuid.UUID, actor, note string) error {
	if strings.TrimSpace(note) == "" {
		return domainerrors.BadRequest("a justification note is required to hold a settlement")
	}
	return u.transition(ctx, id, entities.SettlementStatusPending, entities.SettlementStatusHold, actor, note, repositories.TransitionUpdate{})
}

// Reject permanently fails a held settlement. Manual action only.
func (u *SettlementUsecase) Reject(ctx context.Context, id uuid.UUID, actor, note string) error {
	if strings.TrimSpace(note) == "" {
		return domainerrors.BadRequest("a justification note is required to reject a settlement")
	}
	return u.transition(ctx, id, entities.SettlementStatusHold, entities.SettlementStatusFailed, actor, note, repositories.TransitionUpdate{})
}

// Retry re-queues a failed settlement for dispatch
func (u *SettlementUsecase) Retry(ctx context.Context, id uuid.UUID, actor, note string) error {
	settlement, err := u.settlementRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if settlement.Status != entities.SettlementStatusFailed {
		return domainerrors.ErrInvalidTransition
	}
	if note == "" {
		note = "manual retry"
	}
	return u.transition(ctx, id, entities.SettlementStatusFailed, entities.SettlementStatusApproved, actor, note, repositories.TransitionUpdate{})
}

// transition performs the CAS transition and appends the audit entry
func (u *SettlementUsecase) transition(ctx context.Context, id uuid.UUID, from, to entities.SettlementStatus, actor, reason string, update repositories.TransitionUpdate) error {
	return u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.settlementRepo.Transition(txCtx, id, from, to, update); err != nil {
			return err
		}
		if err := u.auditRepo.Create(txCtx, &entities.AuditEntry{
			ID:           uuid.New(),
			SettlementID: id,
			Actor:        actor,
			FromStatus:   from,
			ToStatus:     to,
			Reason:       reason,
		}); err != nil {
			return err
		}
		metrics.SettlementTransitions.WithLabelValues(string(to)).Inc()
		return nil
	})
}

// Backoff returns the wait before retry attempt n (1-based), doubling from
// the configured base up to the configured cap.
func (u *SettlementUsecase) Backoff(attempt int) time.Duration {
	d := u.backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= u.backoffMax {
			return u.backoffMax
		}
	}
	if d > u.backoffMax {
		return u.backoffMax
	}
	return d
}

// MaxAttempts exposes the configured retry budget
func (u *SettlementUsecase) MaxAttempts() int {
	return u.maxAttempts
}

// GetSettlement returns a settlement with its orders, adjustments and audit
// trail
func (u *SettlementUsecase) GetSettlement(ctx context.Context, id uuid.UUID) (*entities.Settlement, error) {
	settlement, err := u.settlementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement.IncludedOrders, err = u.orderRepo.GetBySettlementID(ctx, id); err != nil {
		return nil, err
	}
	if settlement.AuditTrail, err = u.auditRepo.GetBySettlementID(ctx, id); err != nil {
		return nil, err
	}
	return settlement, nil
}

// ListSettlements returns settlements matching the filter
func (u *SettlementUsecase) ListSettlements(ctx context.Context, filter entities.SettlementFilter) ([]*entities.Settlement, int, error) {
	return u.settlementRepo.List(ctx, filter)
}

// csvHeader mirrors the settlement record fields
var csvHeader = []string{
	"id", "vendor_id", "cycle_start", "cycle_end",
	"gross_amount", "commission_deducted", "net_amount", "adjustment_applied",
	"status", "payout_attempt_count", "due_date", "created_at", "last_transition_at",
}

// exportPageSize bounds how many settlements an export holds in memory at
// once. Variable so tests can drive multi-page exports with small sets.
var exportPageSize = 500

// ExportCSV streams settlements matching the filter as CSV, paging through
// the store so an unfiltered export never materializes the full table.
// A caller-supplied filter limit caps the total rows written.
func (u *SettlementUsecase) ExportCSV(ctx context.Context, filter entities.SettlementFilter, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	remaining := filter.Limit
	page := filter
	page.Limit = exportPageSize
	for {
		if remaining > 0 && remaining < page.Limit {
			page.Limit = remaining
		}
		settlements, _, err := u.settlementRepo.List(ctx, page)
		if err != nil {
			return err
		}
		for _, s := range settlements {
			if err := cw.Write(exportRecord(s)); err != nil {
				return err
			}
		}
		if remaining > 0 {
			remaining -= len(settlements)
			if remaining <= 0 {
				break
			}
		}
		if len(settlements) < page.Limit {
			break
		}
		page.Offset += len(settlements)
	}
	cw.Flush()
	return cw.Error()
}

func exportRecord(s *entities.Settlement) []string {
	return []string{
		s.ID.String(),
		s.VendorID.String(),
		s.CycleStart.UTC().Format(time.RFC3339),
		s.CycleEnd.UTC().Format(time.RFC3339),
		strconv.FormatInt(s.GrossAmount, 10),
		strconv.FormatInt(s.CommissionDeducted, 10),
		strconv.FormatInt(s.NetAmount, 10),
		strconv.FormatInt(s.AdjustmentApplied, 10),
		string(s.Status),
		strconv.Itoa(s.PayoutAttemptCount),
		s.DueDate.UTC().Format(time.RFC3339),
		s.CreatedAt.UTC().Format(time.RFC3339),
		s.LastTransitionAt.UTC().Format(time.RFC3339),
	}
}

// validDestination is a structural sanity check on the configured payout
// destination; the rail remains the authority on whether it is payable.
func validDestination(v *entities.Vendor) bool {
	dest := strings.TrimSpace(v.PayoutDestination)
	if dest == "" {
		return false
	}
	switch v.PayoutMethod {
	case entities.PayoutMethodUPI:
		return strings.Contains(dest, "@")
	case entities.PayoutMethodBankTransfer:
		return len(dest) >= 6
	default:
		return false
	}
}
