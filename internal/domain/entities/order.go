package entities

import (
	"time"

	"github.com/google/uuid"
)

// VendorKind distinguishes the two payable party types on the platform
type VendorKind string

const (
	VendorKindShop         VendorKind = "SHOP"
	VendorKindProfessional VendorKind = "PROFESSIONAL"
)

// Order represents a completed, payment-confirmed transaction attributable to a vendor.
// Orders are immutable once payment-confirmed; the engine only ever sets SettlementID
// (exactly once) and RefundedAt (via the dispute reconciler).
type Order struct {
	ID                 uuid.UUID  `json:"id"`
	VendorID           uuid.UUID  `json:"vendorId"`
	VendorKind         VendorKind `json:"vendorKind"`
	GrossAmount        int64      `json:"grossAmount"` // minor units (paise)
	Category           string     `json:"category"`
	PaymentConfirmedAt time.Time  `json:"paymentConfirmedAt"`
	SettlementID       *uuid.UUID `json:"settlementId,omitempty"`
	CommissionAmount   int64      `json:"commissionAmount"`
	NetAmount          int64      `json:"netAmount"`
	RefundedAt         *time.Time `json:"refundedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// OrderFeedEvent is one message from the order completion feed.
// Delivery is at-least-once; the engine dedupes on OrderID.
type OrderFeedEvent struct {
	OrderID            string     `json:"orderId" binding:"required"`
	VendorID           string     `json:"vendorId" binding:"required"`
	VendorKind         VendorKind `json:"vendorKind" binding:"required"`
	GrossAmount        int64      `json:"grossAmount" binding:"required"`
	Category           string     `json:"category"`
	PaymentConfirmedAt time.Time  `json:"paymentConfirmedAt" binding:"required"`
}
