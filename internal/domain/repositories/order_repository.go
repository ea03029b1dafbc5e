package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
)

// OrderRepository defines order ledger data operations
type OrderRepository interface {
	// Upsert records an order from the completion feed. Replays of the same
	// order id are no-ops (at-least-once feed).
	Upsert(ctx context.Context, order *entities.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Order, error)
	// EligibleOrders returns orders confirmed inside [cycleStart, cycleEnd)
	// that are unassigned and not refunded, ordered by confirmation time.
	// Pure read; a backend failure surfaces as ErrDataUnavailable.
	EligibleOrders(ctx context.Context, vendorID uuid.UUID, cycleStart, cycleEnd time.Time) ([]*entities.Order, error)
	// AssignToSettlement sets settlement_id and the per-order commission split
	// for each order, guarded by settlement_id IS NULL. Returns
	// ErrOrderAlreadySettled if any order was already claimed.
	AssignToSettlement(ctx context.Context, settlementID uuid.UUID, orders []*entities.Order) error
	GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.Order, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) error
}
