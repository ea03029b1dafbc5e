package entities

import (
	"time"

	"github.com/google/uuid"
)

// PayoutMethod represents how a vendor is paid
type PayoutMethod string

const (
	PayoutMethodBankTransfer PayoutMethod = "BANK_TRANSFER"
	PayoutMethodUPI          PayoutMethod = "UPI"
)

// SettlementCycle represents the aggregation window for a vendor
type SettlementCycle string

const (
	SettlementCycleDaily   SettlementCycle = "DAILY"
	SettlementCycleWeekly  SettlementCycle = "WEEKLY"
	SettlementCycleMonthly SettlementCycle = "MONTHLY"
)

// Vendor represents a shop or professional entitled to payouts
type Vendor struct {
	ID                    uuid.UUID       `json:"id"`
	Kind                  VendorKind      `json:"kind"`
	DisplayName           string          `json:"displayName"`
	CommissionRateBps     int64           `json:"commissionRateBps"` // basis points, 1200 = 12%
	MinCommissionPerOrder int64           `json:"minCommissionPerOrder"`
	MinPayoutThreshold    int64           `json:"minPayoutThreshold"`
	PayoutMethod          PayoutMethod    `json:"payoutMethod"`
	PayoutDestination     string          `json:"payoutDestination"`
	SettlementCycle       SettlementCycle `json:"settlementCycle"`
	FraudFlag             bool            `json:"fraudFlag"`
	IsActive              bool            `json:"isActive"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`

	// Joins
	CommissionOverrides []*CommissionOverride `json:"commissionOverrides,omitempty"`
}

// CommissionOverride maps (vendor, category) to a rate that replaces the
// vendor's flat rate for orders in that category.
type CommissionOverride struct {
	ID       uuid.UUID `json:"id"`
	VendorID uuid.UUID `json:"vendorId"`
	Category string    `json:"category"`
	RateBps  int64     `json:"rateBps"`
}

// OverrideRateFor returns the effective commission rate for a category.
func (v *Vendor) OverrideRateFor(category string) int64 {
	for _, o := range v.CommissionOverrides {
		if o.Category == category {
			return o.RateBps
		}
	}
	return v.CommissionRateBps
}

// CreateVendorInput represents input for registering a vendor with the engine
type CreateVendorInput struct {
	Kind                  VendorKind      `json:"kind" binding:"required"`
	DisplayName           string          `json:"displayName" binding:"required"`
	CommissionRateBps     int64           `json:"commissionRateBps" binding:"required"`
	MinCommissionPerOrder int64           `json:"minCommissionPerOrder"`
	MinPayoutThreshold    int64           `json:"minPayoutThreshold"`
	PayoutMethod          PayoutMethod    `json:"payoutMethod" binding:"required"`
	PayoutDestination     string          `json:"payoutDestination" binding:"required"`
	SettlementCycle       SettlementCycle `json:"settlementCycle" binding:"required"`
}

// UpsertOverrideInput sets one category rate for a vendor
type UpsertOverrideInput struct {
	Category string `json:"category" binding:"required"`
	RateBps  int64  `json:"rateBps" binding:"required"`
}
