package entities

import (
	"time"

	"github.com/google/uuid"
)

// SettlementStatus represents the lifecycle state of a settlement
type SettlementStatus string

const (
	SettlementStatusPending         SettlementStatus = "PENDING"
	SettlementStatusHold            SettlementStatus = "HOLD"
	SettlementStatusApproved        SettlementStatus = "APPROVED"
	SettlementStatusDispatched      SettlementStatus = "DISPATCHED"
	SettlementStatusSettled         SettlementStatus = "SETTLED"
	SettlementStatusFailed          SettlementStatus = "FAILED"
	SettlementStatusFailedPermanent SettlementStatus = "FAILED_PERMANENT"
)

// IsTerminal reports whether no further transition is possible.
func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementStatusSettled || s == SettlementStatusFailedPermanent
}

// CyclePeriod is the [Start, End) window a settlement aggregates over.
// Together with the vendor id it is the settlement's idempotency key.
type CyclePeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Settlement is a batched payout obligation to one vendor for one cycle.
// Totals are in minor units and must always satisfy
// NetAmount == GrossAmount - CommissionDeducted + AdjustmentApplied.
type Settlement struct {
	ID                 uuid.UUID        `json:"id"`
	VendorID           uuid.UUID        `json:"vendorId"`
	CycleStart         time.Time        `json:"cycleStart"`
	CycleEnd           time.Time        `json:"cycleEnd"`
	GrossAmount        int64            `json:"grossAmount"`
	CommissionDeducted int64            `json:"commissionDeducted"`
	NetAmount          int64            `json:"netAmount"`
	AdjustmentApplied  int64            `json:"adjustmentApplied"` // <= 0, carried-forward dispute reversals
	Status             SettlementStatus `json:"status"`
	PayoutAttemptCount int              `json:"payoutAttemptCount"`
	NextAttemptAt      *time.Time       `json:"nextAttemptAt,omitempty"`
	DueDate            time.Time        `json:"dueDate"`
	RailReference      *string          `json:"railReference,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	LastTransitionAt   time.Time        `json:"lastTransitionAt"`

	// Joins
	IncludedOrders []*Order      `json:"includedOrders,omitempty"`
	AuditTrail     []*AuditEntry `json:"auditTrail,omitempty"`
}

// Period returns the settlement's cycle period.
func (s *Settlement) Period() CyclePeriod {
	return CyclePeriod{Start: s.CycleStart, End: s.CycleEnd}
}

// Adjustment is a forward-looking ledger entry created when a dispute
// resolves against an order whose settlement was already dispatched or
// settled. It is consumed by the vendor's next settlement; historical
// settlement records are never mutated.
type Adjustment struct {
	ID                  uuid.UUID  `json:"id"`
	VendorID            uuid.UUID  `json:"vendorId"`
	DisputeID           uuid.UUID  `json:"disputeId"`
	OrderID             uuid.UUID  `json:"orderId"`
	SourceSettlementID  uuid.UUID  `json:"sourceSettlementId"`
	Amount              int64      `json:"amount"` // negative
	AppliedSettlementID *uuid.UUID `json:"appliedSettlementId,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	AppliedAt           *time.Time `json:"appliedAt,omitempty"`
}

// SettlementFilter narrows list/export queries
type SettlementFilter struct {
	VendorID *uuid.UUID
	Status   *SettlementStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
