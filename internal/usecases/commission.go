package usecases

import (
	"settleline.backend/internal/domain/entities"
)

// bpsDenominator converts basis points to a fraction (1200 bps = 12%).
const bpsDenominator = 10000

// ComputeCommission returns the platform's cut and the vendor's net for one
// order. All amounts are minor units. Rounding is half-up and happens once
// per order, so batch totals are exact sums of already-rounded values and
// need no remainder correction.
//
// The effective rate is the vendor's category override when one exists,
// otherwise the flat rate. The result is floored at the vendor's per-order
// minimum and capped at the order's gross amount, so net is never negative.
func ComputeCommission(order *entities.Order, vendor *entities.Vendor) (commission, net int64) {
	rate := vendor.OverrideRateFor(order.Category)

	raw := roundHalfUp(order.GrossAmount*rate, bpsDenominator)

	commission = raw
	if commission < vendor.MinCommissionPerOrder {
		commission = vendor.MinCommissionPerOrder
	}
	if commission > order.GrossAmount {
		commission = order.GrossAmount
	}

	return commission, order.GrossAmount - commission
}

// roundHalfUp divides n by d rounding half away from zero. n is a
// non-negative money amount scaled by a positive rate.
func roundHalfUp(n, d int64) int64 {
	return (n + d/2) / d
}
