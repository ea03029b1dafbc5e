package entities

import (
	"time"

	"github.com/google/uuid"
)

// SystemActor is the actor recorded for engine-initiated transitions.
const SystemActor = "system"

// AuditEntry records one state transition or ledger mutation with enough
// context to explain, months later, why a vendor was paid a given amount.
type AuditEntry struct {
	ID           uuid.UUID        `json:"id"`
	SettlementID uuid.UUID        `json:"settlementId"`
	Actor        string           `json:"actor"` // admin id or "system"
	FromStatus   SettlementStatus `json:"fromStatus"`
	ToStatus     SettlementStatus `json:"toStatus"`
	Reason       string           `json:"reason"`
	CreatedAt    time.Time        `json:"createdAt"`
}
