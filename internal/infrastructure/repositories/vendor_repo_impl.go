package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/infrastructure/models"
)

// VendorRepository implements vendor configuration data operations
type VendorRepository struct {
	db *gorm.DB
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// Create creates a new vendor
func (r *VendorRepository) Create(ctx context.Context, vendor *entities.Vendor) error {
	m := toVendorModel(vendor)
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt

	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	vendor.CreatedAt = m.CreatedAt
	vendor.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByID gets a vendor with its commission overrides
func (r *VendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Vendor, error) {
	var m models.Vendor
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Preload("Overrides").Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toVendorEntity(&m), nil
}

// List gets vendors with pagination
func (r *VendorRepository) List(ctx context.Context, limit, offset int) ([]*entities.Vendor, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Vendor{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Vendor
	if err := r.db.WithContext(ctx).
		Preload("Overrides").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	vendors := make([]*entities.Vendor, 0, len(ms))
	for i := range ms {
		vendors = append(vendors, toVendorEntity(&ms[i]))
	}
	return vendors, int(total), nil
}

// ListActive returns active vendors on the given settlement cycle
func (r *VendorRepository) ListActive(ctx context.Context, cycle entities.SettlementCycle) ([]*entities.Vendor, error) {
	var ms []models.Vendor
	if err := r.db.WithContext(ctx).
		Preload("Overrides").
		Where("is_active = ? AND settlement_cycle = ?", true, string(cycle)).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	vendors := make([]*entities.Vendor, 0, len(ms))
	for i := range ms {
		vendors = append(vendors, toVendorEntity(&ms[i]))
	}
	return vendors, nil
}

// Update persists mutable vendor configuration
func (r *VendorRepository) Update(ctx context.Context, vendor *entities.Vendor) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Vendor{}).
		Where("id = ?", vendor.ID).
		Updates(map[string]interface{}{
			"display_name":             vendor.DisplayName,
			"commission_rate_bps":      vendor.CommissionRateBps,
			"min_commission_per_order": vendor.MinCommissionPerOrder,
			"min_payout_threshold":     vendor.MinPayoutThreshold,
			"payout_method":            string(vendor.PayoutMethod),
			"payout_destination":       vendor.PayoutDestination,
			"settlement_cycle":         string(vendor.SettlementCycle),
			"is_active":                vendor.IsActive,
			"updated_at":               time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// SetFraudFlag sets the externally-managed fraud flag
func (r *VendorRepository) SetFraudFlag(ctx context.Context, id uuid.UUID, flagged bool) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Vendor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"fraud_flag": flagged, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// UpsertOverride sets one (vendor, category) commission rate
func (r *VendorRepository) UpsertOverride(ctx context.Context, override *entities.CommissionOverride) error {
	m := &models.CommissionOverride{
		ID:       override.ID,
		VendorID: override.VendorID,
		Category: override.Category,
		RateBps:  override.RateBps,
	}
	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor_id"}, {Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate_bps"}),
		}).
		Create(m).Error
}

func toVendorModel(v *entities.Vendor) *models.Vendor {
	return &models.Vendor{
		ID:                    v.ID,
		Kind:                  string(v.Kind),
		DisplayName:           v.DisplayName,
		CommissionRateBps:     v.CommissionRateBps,
		MinCommissionPerOrder: v.MinCommissionPerOrder,
		MinPayoutThreshold:    v.MinPayoutThreshold,
		PayoutMethod:          string(v.PayoutMethod),
		PayoutDestination:     v.PayoutDestination,
		SettlementCycle:       string(v.SettlementCycle),
		FraudFlag:             v.FraudFlag,
		IsActive:              v.IsActive,
	}
}

func toVendorEntity(m *models.Vendor) *entities.Vendor {
	v := &entities.Vendor{
		ID:                    m.ID,
		Kind:                  entities.VendorKind(m.Kind),
		DisplayName:           m.DisplayName,
		CommissionRateBps:     m.CommissionRateBps,
		MinCommissionPerOrder: m.MinCommissionPerOrder,
		MinPayoutThreshold:    m.MinPayoutThreshold,
		PayoutMethod:          entities.PayoutMethod(m.PayoutMethod),
		PayoutDestination:     m.PayoutDestination,
		SettlementCycle:       entities.SettlementCycle(m.SettlementCycle),
		FraudFlag:             m.FraudFlag,
		IsActive:              m.IsActive,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
	for i := range m.Overrides {
		o := m.Overrides[i]
		v.CommissionOverrides = append(v.CommissionOverrides, &entities.CommissionOverride{
			ID:       o.ID,
			VendorID: o.VendorID,
			Category: o.Category,
			RateBps:  o.RateBps,
		})
	}
	return v
}
