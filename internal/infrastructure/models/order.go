package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VendorID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	VendorKind         string     `gorm:"type:varchar(20);not null"`
	GrossAmount        int64      `gorm:"not null"` // minor units
	Category           string     `gorm:"type:varchar(100);index"`
	PaymentConfirmedAt time.Time  `gorm:"not null;index"`
	SettlementID       *uuid.UUID `gorm:"type:uuid;index"` // set exactly once
	CommissionAmount   int64      `gorm:"default:0"`
	NetAmount          int64      `gorm:"default:0"`
	RefundedAt         *time.Time
	CreatedAt          time.Time
}
