package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/domain/repositories"
	"settleline.backend/pkg/metrics"
)

// FeedUsecase ingests the two external event streams: the order completion
// feed and the dispute feed. Both are at-least-once; dedupe is by event id.
type FeedUsecase struct {
	orderRepo   repositories.OrderRepository
	vendorRepo  repositories.VendorRepository
	disputeRepo repositories.DisputeRepository
}

// NewFeedUsecase creates a new feed usecase
func NewFeedUsecase(
	orderRepo repositories.OrderRepository,
	vendorRepo repositories.VendorRepository,
	disputeRepo repositories.DisputeRepository,
) *FeedUsecase {
	return &FeedUsecase{
		orderRepo:   orderRepo,
		vendorRepo:  vendorRepo,
		disputeRepo: disputeRepo,
	}
}

// IngestOrder records one order completion event. Replays of the same
// order id are accepted and ignored.
func (u *FeedUsecase) IngestOrder(ctx context.Context, event *entities.OrderFeedEvent) error {
	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		return domainerrors.BadRequest("invalid order id")
	}
	vendorID, err := uuid.Parse(event.VendorID)
	if err != nil {
		return domainerrors.BadRequest("invalid vendor id")
	}
	if event.GrossAmount <= 0 {
		return domainerrors.BadRequest("gross amount must be positive")
	}
	if event.VendorKind != entities.VendorKindShop && event.VendorKind != entities.VendorKindProfessional {
		return domainerrors.BadRequest("unknown vendor kind")
	}

	// The vendor must be registered before its orders can settle
	if _, err := u.vendorRepo.GetByID(ctx, vendorID); err != nil {
		return err
	}

	order := &entities.Order{
		ID:                 orderID,
		VendorID:           vendorID,
		VendorKind:         event.VendorKind,
		GrossAmount:        event.GrossAmount,
		Category:           event.Category,
		PaymentConfirmedAt: event.PaymentConfirmedAt,
	}
	if err := u.orderRepo.Upsert(ctx, order); err != nil {
		return err
	}

	metrics.OrdersIngested.Inc()
	return nil
}

// IngestDispute records one dispute feed event. Later events for the same
// dispute id update status and resolution.
func (u *FeedUsecase) IngestDispute(ctx context.Context, event *entities.DisputeFeedEvent) error {
	disputeID, err := uuid.Parse(event.DisputeID)
	if err != nil {
		return domainerrors.BadRequest("invalid dispute id")
	}
	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		return domainerrors.BadRequest("invalid order id")
	}
	if event.Status != entities.DisputeStatusOpen && event.Status != entities.DisputeStatusResolved {
		return domainerrors.BadRequest("unknown dispute status")
	}
	if event.Status == entities.DisputeStatusResolved && event.Resolution == nil {
		return domainerrors.BadRequest("resolved dispute requires a resolution")
	}

	dispute := &entities.Dispute{
		ID:         disputeID,
		OrderID:    orderID,
		Amount:     event.Amount,
		Status:     event.Status,
		Resolution: event.Resolution,
		FiledAt:    event.FiledAt,
	}
	if event.Status == entities.DisputeStatusResolved {
		now := time.Now()
		dispute.ResolvedAt = &now
	}

	return u.disputeRepo.Upsert(ctx, dispute)
}
