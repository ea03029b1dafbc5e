package usecases

import (
	"context"

	"github.com/google/uuid"
	"settleline.backend/internal/domain/entities"
)

// PayoutState is the rail's view of a submitted payout
type PayoutState string

const (
	PayoutStateAccepted PayoutState = "ACCEPTED"
	PayoutStateRejected PayoutState = "REJECTED"
	PayoutStatePending  PayoutState = "PENDING"
	PayoutStateSettled  PayoutState = "SETTLED"
	PayoutStateFailed   PayoutState = "FAILED"
)

// PayoutSubmission is the outcome of submitting a payout to the rail
type PayoutSubmission struct {
	State         PayoutState
	RailReference string
	Reason        string
}

// PayoutGateway is the external payout rail. The idempotency key is the
// settlement id; the rail de-duplicates on it, which makes a resubmission
// after a network timeout safe.
type PayoutGateway interface {
	SubmitPayout(ctx context.Context, idempotencyKey string, method entities.PayoutMethod, destination string, amount int64) (*PayoutSubmission, error)
	QueryPayoutStatus(ctx context.Context, railReference string) (PayoutState, error)
}

// FraudPredicate is the external fraud-detection service, treated as an
// opaque boolean oracle over vendors.
type FraudPredicate interface {
	IsVendorTrusted(ctx context.Context, vendorID uuid.UUID) (bool, error)
}
