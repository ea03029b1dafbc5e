package models

import (
	"time"

	"github.com/google/uuid"
)

type Dispute struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount      int64     `gorm:"not null"`
	Status      string    `gorm:"type:varchar(20);not null;index"`
	Resolution  *string   `gorm:"type:varchar(20)"`
	FiledAt     time.Time `gorm:"not null"`
	ResolvedAt  *time.Time
	ProcessedAt *time.Time `gorm:"index"`
}
