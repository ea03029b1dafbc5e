package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
)

type dispatchFixture struct {
	*settlementFixture
	gateway *fakeGateway
	usecase *DispatchUsecase
}

func newDispatchFixture() *dispatchFixture {
	base := newSettlementFixture()
	gw := &fakeGateway{
		submitResp: &PayoutSubmission{State: PayoutStateAccepted, RailReference: "rail-1"},
		statusResp: PayoutStatePending,
	}
	return &dispatchFixture{
		settlementFixture: base,
		gateway:           gw,
		usecase:           NewDispatchUsecase(base.usecase, base.settlements, base.vendors, gw, time.Second, 50),
	}
}

// approvedSettlement seeds a vendor with one aggregated, approved settlement
func (f *dispatchFixture) approvedSettlement(t *testing.T) *entities.Settlement {
	t.Helper()
	ctx := context.Background()
	vendor := f.addVendor(nil)
	f.addOrder(vendor.ID, 100000, testPeriod.Start.Add(time.Hour))

	settlement, err := f.settlementFixture.usecase.CreateSettlement(ctx, vendor.ID, testPeriod)
	require.NoError(t, err)
	require.NoError(t, f.settlementFixture.usecase.AutoReview(ctx, settlement))

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	require.Equal(t, entities.SettlementStatusApproved, got.Status)
	return got
}

func TestDispatch_AcceptedStoresRailReference(t *testing.T) {
	f := newDispatchFixture()
	ctx := context.Background()
	settlement := f.approvedSettlement(t)

	require.NoError(t, f.usecase.Dispatch(ctx, settlement))

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementStatusDispatched, got.Status)
	require.NotNil(t, got.RailReference)
	assert.Equal(t, "rail-1", *got.RailReference)

	// settlement id is the rail idempotency key
	require.Equal(t, 1, f.gateway.submitCount())
	assert.Equal(t, settlement.ID.String(), f.gateway.submissions[0].idempotencyKey)
	assert.Equal(t, settlement.NetAmount, f.gateway.submissions[0].amount)
}

func TestDispatch_SubmitsAmountReadAfterClaim(t *testing.T) {
	f := newDispatchFixture()
	ctx := context.Background()
	settlement := f.approvedSettlement(t) // net 88000

	// A refund reversal lands on the stored totals after the dispatch
	// scan, while the settlement is still approved.
	require.NoError(t, f.settlements.ApplyDisputeReversal(ctx, settlement.ID, 50000, 6000, 44000))

	require.NoError(t, f.usecase.Dispatch(ctx, settlement))

	require.Equal(t, 1, f.gateway.submitCount())
	assert.Equal(t, int64(44000), f.gateway.submissions[0].amount, "rail paid the post-reversal amount")

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, got.NetAmount, f.gateway.submissions[0].amount)
}

func TestDispatch_SecondClaimLoses(t *testing.T) {
	f := newDispatchFixture()
	ctx := context.Background()
	settlement := f.approvedSettlement(t)

	require.NoError(t, f.usecase.Dispatch(ctx, settlement))

	err := f.usecase.Dispatch(ctx, settlement)
	assert.ErrorIs(t, err, domainerrors.ErrSettlementClaimed)
	assert.Equal(t, 1, f.gateway.submitCount(), "loser must not reach the rail")
}

func TestDispatch_TimeoutStaysDispatched(t *testing.T) {
	f := newDispatchFixture()
	f.gateway.submitErr = context.DeadlineExceeded
	ctx := context.Background()
	settlement := f.approvedSettlement(t)

	require.NoError(t, f.usecase.Dispatch(ctx, settlement))

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementStatusDispatched, got.Status, "indeterminate outcome is not a failure")
	assert.Nil(t, got.RailReference)
	assert.Equal(t, 0, got.PayoutAttemptCount)
}

func TestPollInFlight_ResubmitsLostSubmissionWithSameKey(t *testing.T) {
	f := newDispatchFixture()
	f.gateway.submitErr = context.DeadlineExceeded
	ctx := context.Background()
	settlement := f.approvedSettlement(t)

	require.NoError(t, f.usecase.Dispatch(ctx, settlement))
	require.Equal(t, 1, f.gateway.submitCount())

	// rail comes back; the poll resubmits under the original key
	f.gateway.submitErr = nil
	f.usecase.PollInFlight(ctx)

	require.Equal(t, 2, f.gateway.submitCount())
	assert.Equal(t, f.gateway.submissions[0].idempotencyKey, f.gateway.submissions[1].idempotencyKey)

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RailReference)
}

func TestPollInFlight_SettlesConfirmedPayout(t *testing.T) {
	f := newDispatchFixture()
	ctx := context.Background()
	settlement := f.approvedSettlement(t)
	require.NoError(t, f.usecase.Dispatch(ctx, settlement))

	f.gateway.statusResp = PayoutStateSettled
	f.usecase.PollInFlight(ctx)

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementStatusSettled, got.Status)
	assert.Contains(t, f.audits.lastReason(settlement.ID), "status poll")
}

func TestDispatch_RejectedSchedulesRetry(t *testing.T) {
	f := newDispatchFixture()
	f.gateway.submitResp = &PayoutSubmission{State: PayoutStateRejected, Reason: "account frozen"}
	ctx := context.Background()
	settlement := f.approvedSettlement(t)

	require.NoError(t, f.usecase.Dispatch(ctx, settlement))

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementStatusFailed, got.Status)
	assert.Equal(t, 1, got.PayoutAttemptCount)
	require.NotNil(t, got.NextAttemptAt)
	assert.True(t, got.NextAttemptAt.After(time.Now()), "backoff scheduled")
}

func TestDispatch_ExhaustsIntoFailedPermanent(t *testing.T) {
	f := newDispatchFixture()
	f.gateway.submitResp = &PayoutSubmission{State: PayoutStateRejected, Reason: "account frozen"}
	ctx := context.Background()
	settlement := f.approvedSettlement(t)

	// max attempts is 3; drive the full retry loop
	for attempt := 1; attempt <= 3; attempt++ {
		current, err := f.settlements.GetByID(ctx, settlement.ID)
		require.NoError(t, err)
		if attempt > 1 {
			require.Equal(t, entities.SettlementStatusFailed, current.Status)
			// force the backoff to elapse and re-approve
			f.settlements.mu.Lock()
			f.settlements.settlements[settlement.ID].NextAttemptAt = nil
			f.settlements.mu.Unlock()
			f.usecase.RetryFailedDue(ctx)
			current, err = f.settlements.GetByID(ctx, settlement.ID)
			require.NoError(t, err)
			require.Equal(t, entities.SettlementStatusApproved, current.Status)
		}
		require.NoError(t, f.usecase.Dispatch(ctx, current))
	}

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementStatusFailedPermanent, got.Status)
	assert.Equal(t, 3, got.PayoutAttemptCount)
	assert.Contains(t, f.audits.lastReason(settlement.ID), "retry budget exhausted")
}

func TestRetryFailedDue_RespectsBackoff(t *testing.T) {
	f := newDispatchFixture()
	f.gateway.submitResp = &PayoutSubmission{State: PayoutStateRejected, Reason: "account frozen"}
	ctx := context.Background()
	settlement := f.approvedSettlement(t)
	require.NoError(t, f.usecase.Dispatch(ctx, settlement))

	// backoff has not elapsed yet
	f.usecase.RetryFailedDue(ctx)

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementStatusFailed, got.Status)
}

func TestConfirmByID_WebhookOutcome(t *testing.T) {
	f := newDispatchFixture()
	ctx := context.Background()
	settlement := f.approvedSettlement(t)
	require.NoError(t, f.usecase.Dispatch(ctx, settlement))

	require.NoError(t, f.usecase.ConfirmByID(ctx, settlement.ID, PayoutStateSettled, "rail callback"))

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementStatusSettled, got.Status)

	// a duplicate callback is rejected by the CAS, not double-recorded
	err = f.usecase.ConfirmByID(ctx, settlement.ID, PayoutStateSettled, "rail callback")
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidTransition))
}

func TestConfirmOutcome_PendingIsNoOp(t *testing.T) {
	f := newDispatchFixture()
	ctx := context.Background()
	settlement := f.approvedSettlement(t)
	require.NoError(t, f.usecase.Dispatch(ctx, settlement))

	require.NoError(t, f.usecase.ConfirmByID(ctx, settlement.ID, PayoutStatePending, "status poll"))

	got, err := f.settlements.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementStatusDispatched, got.Status)
}

func TestDispatchDue_ProcessesBatch(t *testing.T) {
	f := newDispatchFixture()
	ctx := context.Background()
	s1 := f.approvedSettlement(t)

	f.usecase.DispatchDue(ctx)

	got, err := f.settlements.GetByID(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementStatusDispatched, got.Status)
}
