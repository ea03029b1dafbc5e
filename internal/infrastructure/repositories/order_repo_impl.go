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

// OrderRepository implements order ledger data operations
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Upsert records an order from the completion feed. The feed is
// at-least-once, so a replayed order id is silently ignored.
func (r *OrderRepository) Upsert(ctx context.Context, order *entities.Order) error {
	m := &models.Order{
		ID:                 order.ID,
		VendorID:           order.VendorID,
		VendorKind:         string(order.VendorKind),
		GrossAmount:        order.GrossAmount,
		Category:           order.Category,
		PaymentConfirmedAt: order.PaymentConfirmedAt,
		CreatedAt:          time.Now(),
	}

	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(m).Error
}

// GetByID gets an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Order, error) {
	var m models.Order
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toOrderEntity(&m), nil
}

// EligibleOrders returns unassigned, non-refunded orders confirmed inside
// [cycleStart, cycleEnd). A storage failure is reported as
// ErrDataUnavailable so callers fail closed instead of aggregating a
// partial batch.
func (r *OrderRepository) EligibleOrders(ctx context.Context, vendorID uuid.UUID, cycleStart, cycleEnd time.Time) ([]*entities.Order, error) {
	var ms []models.Order
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Where("payment_confirmed_at >= ? AND payment_confirmed_at < ?", cycleStart, cycleEnd).
		Where("settlement_id IS NULL").
		Where("refunded_at IS NULL").
		Order("payment_confirmed_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, domainerrors.ErrDataUnavailable
	}

	orders := make([]*entities.Order, 0, len(ms))
	for i := range ms {
		orders = append(orders, toOrderEntity(&ms[i]))
	}
	return orders, nil
}

// AssignToSettlement stamps settlement_id and the commission split on each
// order. The WHERE settlement_id IS NULL guard makes assignment write-once;
// a row that was claimed by another settlement in the meantime surfaces as
// ErrOrderAlreadySettled and aborts the enclosing transaction.
func (r *OrderRepository) AssignToSettlement(ctx context.Context, settlementID uuid.UUID, orders []*entities.Order) error {
	db := GetDB(ctx, r.db)
	for _, o := range orders {
		result := db.WithContext(ctx).Model(&models.Order{}).
			Where("id = ? AND settlement_id IS NULL", o.ID).
			Updates(map[string]interface{}{
				"settlement_id":     settlementID,
				"commission_amount": o.CommissionAmount,
				"net_amount":        o.NetAmount,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrOrderAlreadySettled
		}
	}
	return nil
}

// GetBySettlementID returns the orders included in a settlement
func (r *OrderRepository) GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.Order, error) {
	var ms []models.Order
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Order("payment_confirmed_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	orders := make([]*entities.Order, 0, len(ms))
	for i := range ms {
		orders = append(orders, toOrderEntity(&ms[i]))
	}
	return orders, nil
}

// MarkRefunded flags an order so it never becomes eligible for aggregation
func (r *OrderRepository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("refunded_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toOrderEntity(m *models.Order) *entities.Order {
	return &entities.Order{
		ID:                 m.ID,
		VendorID:           m.VendorID,
		VendorKind:         entities.VendorKind(m.VendorKind),
		GrossAmount:        m.GrossAmount,
		Category:           m.Category,
		PaymentConfirmedAt: m.PaymentConfirmedAt,
		SettlementID:       m.SettlementID,
		CommissionAmount:   m.CommissionAmount,
		NetAmount:          m.NetAmount,
		RefundedAt:         m.RefundedAt,
		CreatedAt:          m.CreatedAt,
	}
}
