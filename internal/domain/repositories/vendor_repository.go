package repositories

import (
	"context"

	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
)

// VendorRepository defines vendor configuration data operations
type VendorRepository interface {
	Create(ctx context.Context, vendor *entities.Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Vendor, error)
	List(ctx context.Context, limit, offset int) ([]*entities.Vendor, int, error)
	ListActive(ctx context.Context, cycle entities.SettlementCycle) ([]*entities.Vendor, error)
	Update(ctx context.Context, vendor *entities.Vendor) error
	SetFraudFlag(ctx context.Context, id uuid.UUID, flagged bool) error
	UpsertOverride(ctx context.Context, override *entities.CommissionOverride) error
}
