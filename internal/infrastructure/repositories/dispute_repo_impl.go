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

// DisputeRepository implements dispute feed data operations
type DisputeRepository struct {
	db *gorm.DB
}

// NewDisputeRepository creates a new dispute repository
func NewDisputeRepository(db *gorm.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Upsert records a dispute feed event. A later event for the same dispute
// id (e.g. open -> resolved) overwrites status and resolution but never the
// reconciler's processed_at watermark.
func (r *DisputeRepository) Upsert(ctx context.Context, dispute *entities.Dispute) error {
	m := toDisputeModel(dispute)

	db := GetDB(ctx, r.db)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "resolution", "resolved_at"}),
		}).
		Create(m).Error
}

// GetByID gets a dispute by ID
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Dispute, error) {
	var m models.Dispute
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toDisputeEntity(&m), nil
}

// UnprocessedResolved returns resolved disputes the reconciler has not
// consumed yet, oldest first
func (r *DisputeRepository) UnprocessedResolved(ctx context.Context, limit int) ([]*entities.Dispute, error) {
	var ms []models.Dispute
	if err := r.db.WithContext(ctx).
		Where("status = ? AND processed_at IS NULL", string(entities.DisputeStatusResolved)).
		Order("resolved_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	disputes := make([]*entities.Dispute, 0, len(ms))
	for i := range ms {
		disputes = append(disputes, toDisputeEntity(&ms[i]))
	}
	return disputes, nil
}

// MarkProcessed stamps the reconciler watermark
func (r *DisputeRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.Dispute{}).
		Where("id = ?", id).
		Update("processed_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toDisputeModel(d *entities.Dispute) *models.Dispute {
	m := &models.Dispute{
		ID:          d.ID,
		OrderID:     d.OrderID,
		Amount:      d.Amount,
		Status:      string(d.Status),
		FiledAt:     d.FiledAt,
		ResolvedAt:  d.ResolvedAt,
		ProcessedAt: d.ProcessedAt,
	}
	if d.Resolution != nil {
		res := string(*d.Resolution)
		m.Resolution = &res
	}
	return m
}

func toDisputeEntity(m *models.Dispute) *entities.Dispute {
	d := &entities.Dispute{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Amount:      m.Amount,
		Status:      entities.DisputeStatus(m.Status),
		FiledAt:     m.FiledAt,
		ResolvedAt:  m.ResolvedAt,
		ProcessedAt: m.ProcessedAt,
	}
	if m.Resolution != nil {
		res := entities.DisputeResolution(*m.Resolution)
		d.Resolution = &res
	}
	return d
}
