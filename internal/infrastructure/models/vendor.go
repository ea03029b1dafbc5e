package models

import (
	"time"

	"github.com/google/uuid"
)

type Vendor struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind                  string    `gorm:"type:varchar(20);not null"`
	DisplayName           string    `gorm:"type:varchar(255);not null"`
	CommissionRateBps     int64     `gorm:"not null"`
	MinCommissionPerOrder int64     `gorm:"default:0"`
	MinPayoutThreshold    int64     `gorm:"default:0"`
	PayoutMethod          string    `gorm:"type:varchar(30);not null"`
	PayoutDestination     string    `gorm:"type:varchar(255);not null"`
	SettlementCycle       string    `gorm:"type:varchar(20);not null;index"`
	FraudFlag             bool      `gorm:"default:false"`
	IsActive              bool      `gorm:"default:true"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Overrides []CommissionOverride `gorm:"foreignKey:VendorID"`
}

type CommissionOverride struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	VendorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vendor_category"`
	Category string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_vendor_category"`
	RateBps  int64     `gorm:"not null"`
}
