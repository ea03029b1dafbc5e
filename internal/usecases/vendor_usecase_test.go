package usecases

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
)

func validVendorInput() *entities.CreateVendorInput {
	return &entities.CreateVendorInput{
		Kind:                  entities.VendorKindShop,
		DisplayName:           "Acme Traders",
		CommissionRateBps:     1200,
		MinCommissionPerOrder: 0,
		MinPayoutThreshold:    10000,
		PayoutMethod:          entities.PayoutMethodBankTransfer,
		PayoutDestination:     "0011223344",
		SettlementCycle:       entities.SettlementCycleDaily,
	}
}

func TestCreateVendor(t *testing.T) {
	f := newSettlementFixture()
	u := NewVendorUsecase(f.vendors)
	ctx := context.Background()

	vendor, err := u.CreateVendor(ctx, validVendorInput())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, vendor.ID)
	assert.True(t, vendor.IsActive, "vendors start active")
	assert.False(t, vendor.FraudFlag)

	got, err := u.GetVendor(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Traders", got.DisplayName)
}

func TestCreateVendor_Validation(t *testing.T) {
	f := newSettlementFixture()
	u := NewVendorUsecase(f.vendors)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(in *entities.CreateVendorInput)
	}{
		{"negative rate", func(in *entities.CreateVendorInput) { in.CommissionRateBps = -1 }},
		{"rate above 100 percent", func(in *entities.CreateVendorInput) { in.CommissionRateBps = 10001 }},
		{"negative minimum commission", func(in *entities.CreateVendorInput) { in.MinCommissionPerOrder = -1 }},
		{"negative payout threshold", func(in *entities.CreateVendorInput) { in.MinPayoutThreshold = -1 }},
		{"unknown cycle", func(in *entities.CreateVendorInput) { in.SettlementCycle = "FORTNIGHTLY" }},
		{"unknown payout method", func(in *entities.CreateVendorInput) { in.PayoutMethod = "CASH" }},
		{"bank destination too short", func(in *entities.CreateVendorInput) { in.PayoutDestination = "123" }},
		{"upi destination without handle", func(in *entities.CreateVendorInput) {
			in.PayoutMethod = entities.PayoutMethodUPI
			in.PayoutDestination = "no-at-sign"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validVendorInput()
			tt.mutate(input)
			_, err := u.CreateVendor(ctx, input)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
		})
	}
}

func TestCreateVendor_UPIDestination(t *testing.T) {
	f := newSettlementFixture()
	u := NewVendorUsecase(f.vendors)

	input := validVendorInput()
	input.PayoutMethod = entities.PayoutMethodUPI
	input.PayoutDestination = "acme@upi"

	vendor, err := u.CreateVendor(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, entities.PayoutMethodUPI, vendor.PayoutMethod)
}

func TestSetCommissionOverride(t *testing.T) {
	f := newSettlementFixture()
	u := NewVendorUsecase(f.vendors)
	ctx := context.Background()
	vendor := f.addVendor(nil)

	require.NoError(t, u.SetCommissionOverride(ctx, vendor.ID, &entities.UpsertOverrideInput{
		Category: "electronics",
		RateBps:  800,
	}))

	got, err := f.vendors.GetByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(800), got.OverrideRateFor("electronics"))
	assert.Equal(t, int64(1200), got.OverrideRateFor("furniture"))
}

func TestSetCommissionOverride_Validation(t *testing.T) {
	f := newSettlementFixture()
	u := NewVendorUsecase(f.vendors)
	ctx := context.Background()
	vendor := f.addVendor(nil)

	err := u.SetCommissionOverride(ctx, vendor.ID, &entities.UpsertOverrideInput{Category: "x", RateBps: 10001})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	err = u.SetCommissionOverride(ctx, uuid.New(), &entities.UpsertOverrideInput{Category: "x", RateBps: 500})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSetFraudFlag(t *testing.T) {
	f := newSettlementFixture()
	u := NewVendorUsecase(f.vendors)
	ctx := context.Background()
	vendor := f.addVendor(nil)

	require.NoError(t, u.SetFraudFlag(ctx, vendor.ID, true))

	got, err := f.vendors.GetByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.True(t, got.FraudFlag)

	assert.ErrorIs(t, u.SetFraudFlag(ctx, uuid.New(), true), domainerrors.ErrNotFound)
}

func TestListVendors_Pagination(t *testing.T) {
	f := newSettlementFixture()
	u := NewVendorUsecase(f.vendors)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.addVendor(nil)
	}

	page, total, err := u.ListVendors(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	rest, _, err := u.ListVendors(ctx, 10, 4)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
