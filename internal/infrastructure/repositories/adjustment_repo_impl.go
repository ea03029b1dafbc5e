package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"settleline.backend/internal/domain/entities"
	"settleline.backend/internal/infrastructure/models"
)

// AdjustmentRepository implements forward-adjustment ledger operations
type AdjustmentRepository struct {
	db *gorm.DB
}

// NewAdjustmentRepository creates a new adjustment repository
func NewAdjustmentRepository(db *gorm.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

// Create records a negative adjustment. The unique index on dispute_id
// keeps a re-delivered dispute from producing a second deduction.
func (r *AdjustmentRepository) Create(ctx context.Context, adjustment *entities.Adjustment) error {
	m := &models.Adjustment{
		ID:                 adjustment.ID,
		VendorID:           adjustment.VendorID,
		DisputeID:          adjustment.DisputeID,
		OrderID:            adjustment.OrderID,
		SourceSettlementID: adjustment.SourceSettlementID,
		Amount:             adjustment.Amount,
		CreatedAt:          time.Now(),
	}

	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "dispute_id"}}, DoNothing: true}).
		Create(m).Error
}

// PendingByVendor returns unapplied adjustments for a vendor, oldest first
func (r *AdjustmentRepository) PendingByVendor(ctx context.Context, vendorID uuid.UUID) ([]*entities.Adjustment, error) {
	var ms []models.Adjustment
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("vendor_id = ? AND applied_settlement_id IS NULL", vendorID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	adjustments := make([]*entities.Adjustment, 0, len(ms))
	for i := range ms {
		adjustments = append(adjustments, toAdjustmentEntity(&ms[i]))
	}
	return adjustments, nil
}

// MarkApplied stamps adjustments as consumed by a settlement
func (r *AdjustmentRepository) MarkApplied(ctx context.Context, ids []uuid.UUID, settlementID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).Model(&models.Adjustment{}).
		Where("id IN ? AND applied_settlement_id IS NULL", ids).
		Updates(map[string]interface{}{
			"applied_settlement_id": settlementID,
			"applied_at":            now,
		}).Error
}

// GetBySettlementID returns adjustments consumed by a settlement
func (r *AdjustmentRepository) GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.Adjustment, error) {
	var ms []models.Adjustment
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("applied_settlement_id = ?", settlementID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	adjustments := make([]*entities.Adjustment, 0, len(ms))
	for i := range ms {
		adjustments = append(adjustments, toAdjustmentEntity(&ms[i]))
	}
	return adjustments, nil
}

func toAdjustmentEntity(m *models.Adjustment) *entities.Adjustment {
	return &entities.Adjustment{
		ID:                  m.ID,
		VendorID:            m.VendorID,
		DisputeID:           m.DisputeID,
		OrderID:             m.OrderID,
		SourceSettlementID:  m.SourceSettlementID,
		Amount:              m.Amount,
		AppliedSettlementID: m.AppliedSettlementID,
		CreatedAt:           m.CreatedAt,
		AppliedAt:           m.AppliedAt,
	}
}
