package entities

import (
	"time"

	"github.com/google/uuid"
)

// DisputeStatus represents dispute lifecycle
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "OPEN"
	DisputeStatusResolved DisputeStatus = "RESOLVED"
)

// DisputeResolution is the outcome of a resolved dispute
type DisputeResolution string

const (
	DisputeResolutionRefund   DisputeResolution = "REFUND"
	DisputeResolutionRejected DisputeResolution = "REJECTED"
)

// Dispute is a customer- or bank-initiated contest of a transaction,
// created and resolved by an external actor. The engine only observes it.
type Dispute struct {
	ID          uuid.UUID          `json:"id"`
	OrderID     uuid.UUID          `json:"orderId"`
	Amount      int64              `json:"amount"`
	Status      DisputeStatus      `json:"status"`
	Resolution  *DisputeResolution `json:"resolution,omitempty"`
	FiledAt     time.Time          `json:"filedAt"`
	ResolvedAt  *time.Time         `json:"resolvedAt,omitempty"`
	ProcessedAt *time.Time         `json:"processedAt,omitempty"` // reconciler watermark
}

// DisputeFeedEvent is one message from the external dispute feed
type DisputeFeedEvent struct {
	DisputeID  string             `json:"disputeId" binding:"required"`
	OrderID    string             `json:"orderId" binding:"required"`
	Amount     int64              `json:"amount" binding:"required"`
	Status     DisputeStatus      `json:"status" binding:"required"`
	Resolution *DisputeResolution `json:"resolution,omitempty"`
	FiledAt    time.Time          `json:"filedAt" binding:"required"`
}
