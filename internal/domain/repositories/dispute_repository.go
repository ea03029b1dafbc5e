package repositories

import (
	"context"

	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
)

// DisputeRepository defines dispute feed data operations
type DisputeRepository interface {
	// Upsert records a dispute feed event; replays and status updates for the
	// same dispute id overwrite in place.
	Upsert(ctx context.Context, dispute *entities.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Dispute, error)
	// UnprocessedResolved returns resolved disputes the reconciler has not
	// consumed yet, oldest first.
	UnprocessedResolved(ctx context.Context, limit int) ([]*entities.Dispute, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}
