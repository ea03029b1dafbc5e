package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"settleline.backend/internal/domain/entities"
	"settleline.backend/internal/infrastructure/models"
)

// AuditRepository implements audit trail operations
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit entry
func (r *AuditRepository) Create(ctx context.Context, entry *entities.AuditEntry) error {
	m := &models.AuditEntry{
		ID:           entry.ID,
		SettlementID: entry.SettlementID,
		Actor:        entry.Actor,
		FromStatus:   string(entry.FromStatus),
		ToStatus:     string(entry.ToStatus),
		Reason:       entry.Reason,
		CreatedAt:    time.Now(),
	}

	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	entry.CreatedAt = m.CreatedAt
	return nil
}

// GetBySettlementID returns the audit trail for a settlement, oldest first
func (r *AuditRepository) GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.AuditEntry, error) {
	var ms []models.AuditEntry
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	entries := make([]*entities.AuditEntry, 0, len(ms))
	for i := range ms {
		m := ms[i]
		entries = append(entries, &entities.AuditEntry{
			ID:           m.ID,
			SettlementID: m.SettlementID,
			Actor:        m.Actor,
			FromStatus:   entities.SettlementStatus(m.FromStatus),
			ToStatus:     entities.SettlementStatus(m.ToStatus),
			Reason:       m.Reason,
			CreatedAt:    m.CreatedAt,
		})
	}
	return entries, nil
}
