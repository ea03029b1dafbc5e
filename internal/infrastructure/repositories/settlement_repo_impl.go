package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	domainRepos "settleline.backend/internal/domain/repositories"
	"settleline.backend/internal/infrastructure/models"
)

// SettlementRepository implements settlement data operations
type SettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Create persists a new settlement. The unique (vendor_id, cycle_start,
// cycle_end) index is the idempotency backstop: a concurrent duplicate
// surfaces as ErrAlreadyExists instead of a second financial obligation.
func (r *SettlementRepository) Create(ctx context.Context, settlement *entities.Settlement) error {
	m := toSettlementModel(settlement)

	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetByID gets a settlement by ID
func (r *SettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Settlement, error) {
	var m models.Settlement
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toSettlementEntity(&m), nil
}

// GetByVendorAndPeriod looks a settlement up by its idempotency key
func (r *SettlementRepository) GetByVendorAndPeriod(ctx context.Context, vendorID uuid.UUID, period entities.CyclePeriod) (*entities.Settlement, error) {
	var m models.Settlement
	db := GetDB(ctx, r.db)
	err := db.WithContext(ctx).
		Where("vendor_id = ? AND cycle_start = ? AND cycle_end = ?", vendorID, period.Start, period.End).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toSettlementEntity(&m), nil
}

// List gets settlements matching the filter, newest first
func (r *SettlementRepository) List(ctx context.Context, filter entities.SettlementFilter) ([]*entities.Settlement, int, error) {
	q := r.db.WithContext(ctx).Model(&models.Settlement{})
	if filter.VendorID != nil {
		q = q.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.From != nil {
		q = q.Where("cycle_start >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("cycle_end <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var ms []models.Settlement
	// id breaks created_at ties so paged reads never skip or repeat rows
	if err := q.Order("created_at DESC, id").Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	settlements := make([]*entities.Settlement, 0, len(ms))
	for i := range ms {
		settlements = append(settlements, toSettlementEntity(&ms[i]))
	}
	return settlements, int(total), nil
}

// Transition moves a settlement from one status to another with a
// compare-and-swap on the stored status. Two workers racing on the same
// settlement cannot both win: the loser sees zero rows affected and gets
// ErrInvalidTransition.
func (r *SettlementRepository) Transition(ctx context.Context, id uuid.UUID, from, to entities.SettlementStatus, update domainRepos.TransitionUpdate) error {
	if !entities.CanTransition(from, to) {
		return domainerrors.ErrInvalidTransition
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":             string(to),
		"last_transition_at": now,
	}
	if update.IncrementAttempts {
		updates["payout_attempt_count"] = gorm.Expr("payout_attempt_count + 1")
	}
	if update.NextAttemptAt != nil {
		updates["next_attempt_at"] = *update.NextAttemptAt
	}
	if update.RailReference != nil {
		updates["rail_reference"] = *update.RailReference
	}

	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Settlement{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

// ApplyDisputeReversal subtracts a disputed order's contribution from a
// settlement that has not been paid out yet. Callers must have verified the
// status; the guard here refuses the mutation once money is in flight.
func (r *SettlementRepository) ApplyDisputeReversal(ctx context.Context, id uuid.UUID, gross, commission, net int64) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Settlement{}).
		Where("id = ? AND status IN ?", id, []string{
			string(entities.SettlementStatusPending),
			string(entities.SettlementStatusHold),
			string(entities.SettlementStatusApproved),
		}).
		Updates(map[string]interface{}{
			"gross_amount":        gorm.Expr("gross_amount - ?", gross),
			"commission_deducted": gorm.Expr("commission_deducted - ?", commission),
			"net_amount":          gorm.Expr("net_amount - ?", net),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

// SetRailReference stores the rail's reference for an acknowledged
// submission
func (r *SettlementRepository) SetRailReference(ctx context.Context, id uuid.UUID, railReference string) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Settlement{}).
		Where("id = ?", id).
		Update("rail_reference", railReference)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// DueForDispatch returns approved settlements ready for payout
func (r *SettlementRepository) DueForDispatch(ctx context.Context, now time.Time, limit int) ([]*entities.Settlement, error) {
	return r.findByStatus(ctx, entities.SettlementStatusApproved, now, limit)
}

// RetryableFailed returns failed settlements whose backoff has elapsed
func (r *SettlementRepository) RetryableFailed(ctx context.Context, now time.Time, limit int) ([]*entities.Settlement, error) {
	return r.findByStatus(ctx, entities.SettlementStatusFailed, now, limit)
}

// InFlight returns dispatched settlements awaiting a rail outcome
func (r *SettlementRepository) InFlight(ctx context.Context, limit int) ([]*entities.Settlement, error) {
	var ms []models.Settlement
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.SettlementStatusDispatched)).
		Order("last_transition_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	settlements := make([]*entities.Settlement, 0, len(ms))
	for i := range ms {
		settlements = append(settlements, toSettlementEntity(&ms[i]))
	}
	return settlements, nil
}

func (r *SettlementRepository) findByStatus(ctx context.Context, status entities.SettlementStatus, now time.Time, limit int) ([]*entities.Settlement, error) {
	var ms []models.Settlement
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	settlements := make([]*entities.Settlement, 0, len(ms))
	for i := range ms {
		settlements = append(settlements, toSettlementEntity(&ms[i]))
	}
	return settlements, nil
}

// isUniqueViolation matches duplicate-key errors across postgres and the
// sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

func toSettlementModel(s *entities.Settlement) *models.Settlement {
	return &models.Settlement{
		ID:                 s.ID,
		VendorID:           s.VendorID,
		CycleStart:         s.CycleStart,
		CycleEnd:           s.CycleEnd,
		GrossAmount:        s.GrossAmount,
		CommissionDeducted: s.CommissionDeducted,
		NetAmount:          s.NetAmount,
		AdjustmentApplied:  s.AdjustmentApplied,
		Status:             string(s.Status),
		PayoutAttemptCount: s.PayoutAttemptCount,
		NextAttemptAt:      s.NextAttemptAt,
		DueDate:            s.DueDate,
		RailReference:      s.RailReference,
		CreatedAt:          s.CreatedAt,
		LastTransitionAt:   s.LastTransitionAt,
	}
}

func toSettlementEntity(m *models.Settlement) *entities.Settlement {
	return &entities.Settlement{
		ID:                 m.ID,
		VendorID:           m.VendorID,
		CycleStart:         m.CycleStart,
		CycleEnd:           m.CycleEnd,
		GrossAmount:        m.GrossAmount,
		CommissionDeducted: m.CommissionDeducted,
		NetAmount:          m.NetAmount,
		AdjustmentApplied:  m.AdjustmentApplied,
		Status:             entities.SettlementStatus(m.Status),
		PayoutAttemptCount: m.PayoutAttemptCount,
		NextAttemptAt:      m.NextAttemptAt,
		DueDate:            m.DueDate,
		RailReference:      m.RailReference,
		CreatedAt:          m.CreatedAt,
		LastTransitionAt:   m.LastTransitionAt,
	}
}
