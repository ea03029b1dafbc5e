package models

import (
	"time"

	"github.com/google/uuid"
)

type Settlement struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	VendorID           uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_vendor_cycle"`
	CycleStart         time.Time `gorm:"not null;uniqueIndex:idx_vendor_cycle"`
	CycleEnd           time.Time `gorm:"not null;uniqueIndex:idx_vendor_cycle"`
	GrossAmount        int64     `gorm:"not null"`
	CommissionDeducted int64     `gorm:"not null"`
	NetAmount          int64     `gorm:"not null"`
	AdjustmentApplied  int64     `gorm:"default:0"`
	Status             string    `gorm:"type:varchar(30);not null;index"`
	PayoutAttemptCount int       `gorm:"default:0"`
	NextAttemptAt      *time.Time
	DueDate            time.Time
	RailReference      *string `gorm:"type:varchar(255);index"`
	CreatedAt          time.Time
	LastTransitionAt   time.Time
}

type Adjustment struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VendorID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	DisputeID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"` // one adjustment per dispute
	OrderID             uuid.UUID  `gorm:"type:uuid;not null"`
	SourceSettlementID  uuid.UUID  `gorm:"type:uuid;not null"`
	Amount              int64      `gorm:"not null"` // negative
	AppliedSettlementID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt           time.Time
	AppliedAt           *time.Time
}

type AuditEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SettlementID uuid.UUID `gorm:"type:uuid;not null;index"`
	Actor        string    `gorm:"type:varchar(100);not null"`
	FromStatus   string    `gorm:"type:varchar(30)"`
	ToStatus     string    `gorm:"type:varchar(30)"`
	Reason       string    `gorm:"type:text"`
	CreatedAt    time.Time
}
