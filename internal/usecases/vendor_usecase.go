package usecases

import (
	"context"

	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/domain/repositories"
)

// VendorUsecase manages vendor payout configuration
type VendorUsecase struct {
	vendorRepo repositories.VendorRepository
}

// NewVendorUsecase creates a new vendor usecase
func NewVendorUsecase(vendorRepo repositories.VendorRepository) *VendorUsecase {
	return &VendorUsecase{vendorRepo: vendorRepo}
}

// CreateVendor registers a vendor with the engine
func (u *VendorUsecase) CreateVendor(ctx context.Context, input *entities.CreateVendorInput) (*entities.Vendor, error) {
	if input.CommissionRateBps < 0 || input.CommissionRateBps > bpsDenominator {
		return nil, domainerrors.BadRequest("commission rate must be between 0 and 10000 bps")
	}
	if input.MinCommissionPerOrder < 0 || input.MinPayoutThreshold < 0 {
		return nil, domainerrors.BadRequest("amounts must be non-negative")
	}
	switch input.SettlementCycle {
	case entities.SettlementCycleDaily, entities.SettlementCycleWeekly, entities.SettlementCycleMonthly:
	default:
		return nil, domainerrors.BadRequest("unknown settlement cycle")
	}
	switch input.PayoutMethod {
	case entities.PayoutMethodBankTransfer, entities.PayoutMethodUPI:
	default:
		return nil, domainerrors.BadRequest("unknown payout method")
	}

	vendor := &entities.Vendor{
		ID:                    uuid.New(),
		Kind:                  input.Kind,
		DisplayName:           input.DisplayName,
		CommissionRateBps:     input.CommissionRateBps,
		MinCommissionPerOrder: input.MinCommissionPerOrder,
		MinPayoutThreshold:    input.MinPayoutThreshold,
		PayoutMethod:          input.PayoutMethod,
		PayoutDestination:     input.PayoutDestination,
		SettlementCycle:       input.SettlementCycle,
		IsActive:              true,
	}
	if !validDestination(vendor) {
		return nil, domainerrors.BadRequest("invalid payout destination")
	}

	if err := u.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// GetVendor gets a vendor with commission overrides
func (u *VendorUsecase) GetVendor(ctx context.Context, id uuid.UUID) (*entities.Vendor, error) {
	return u.vendorRepo.GetByID(ctx, id)
}

// ListVendors gets vendors with pagination
func (u *VendorUsecase) ListVendors(ctx context.Context, limit, offset int) ([]*entities.Vendor, int, error) {
	return u.vendorRepo.List(ctx, limit, offset)
}

// SetCommissionOverride sets a per-category commission rate for a vendor
func (u *VendorUsecase) SetCommissionOverride(ctx context.Context, vendorID uuid.UUID, input *entities.UpsertOverrideInput) error {
	if input.RateBps < 0 || input.RateBps > bpsDenominator {
		return domainerrors.BadRequest("commission rate must be between 0 and 10000 bps")
	}
	if _, err := u.vendorRepo.GetByID(ctx, vendorID); err != nil {
		return err
	}
	return u.vendorRepo.UpsertOverride(ctx, &entities.CommissionOverride{
		ID:       uuid.New(),
		VendorID: vendorID,
		Category: input.Category,
		RateBps:  input.RateBps,
	})
}

// SetFraudFlag sets the externally-managed fraud flag on a vendor
func (u *VendorUsecase) SetFraudFlag(ctx context.Context, vendorID uuid.UUID, flagged bool) error {
	return u.vendorRepo.SetFraudFlag(ctx, vendorID, flagged)
}
