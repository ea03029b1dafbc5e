package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
)

// SettlementRepository defines settlement data operations
type SettlementRepository interface {
	// Create persists a new settlement. The unique (vendor_id, cycle_start,
	// cycle_end) index turns double-aggregation into ErrAlreadyExists.
	Create(ctx context.Context, settlement *entities.Settlement) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Settlement, error)
	GetByVendorAndPeriod(ctx context.Context, vendorID uuid.UUID, period entities.CyclePeriod) (*entities.Settlement, error)
	List(ctx context.Context, filter entities.SettlementFilter) ([]*entities.Settlement, int, error)
	// Transition moves a settlement between states with a compare-and-swap on
	// the current status. Returns ErrInvalidTransition when the stored status
	// is no longer `from`, leaving the row unchanged.
	Transition(ctx context.Context, id uuid.UUID, from, to entities.SettlementStatus, update TransitionUpdate) error
	// ApplyDisputeReversal subtracts a disputed order's contribution from a
	// not-yet-dispatched settlement's totals.
	ApplyDisputeReversal(ctx context.Context, id uuid.UUID, gross, commission, net int64) error
	// SetRailReference stores the rail's reference once a submission is
	// acknowledged, without changing status.
	SetRailReference(ctx context.Context, id uuid.UUID, railReference string) error
	DueForDispatch(ctx context.Context, now time.Time, limit int) ([]*entities.Settlement, error)
	RetryableFailed(ctx context.Context, now time.Time, limit int) ([]*entities.Settlement, error)
	InFlight(ctx context.Context, limit int) ([]*entities.Settlement, error)
}

// TransitionUpdate carries the optional column updates applied atomically
// with a status transition.
type TransitionUpdate struct {
	IncrementAttempts bool
	NextAttemptAt     *time.Time
	RailReference     *string
}

// AdjustmentRepository defines forward-adjustment ledger operations
type AdjustmentRepository interface {
	Create(ctx context.Context, adjustment *entities.Adjustment) error
	PendingByVendor(ctx context.Context, vendorID uuid.UUID) ([]*entities.Adjustment, error)
	MarkApplied(ctx context.Context, ids []uuid.UUID, settlementID uuid.UUID) error
	GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.Adjustment, error)
}

// AuditRepository defines audit trail operations
type AuditRepository interface {
	Create(ctx context.Context, entry *entities.AuditEntry) error
	GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.AuditEntry, error)
}
