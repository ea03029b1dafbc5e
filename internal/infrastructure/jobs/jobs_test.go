package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"settleline.backend/internal/domain/entities"
)

func TestSettlementCycleJob_RunOnce(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()
	vendor := f.addVendor()

	// Wednesday noon; the order sits in Tuesday's closed daily window
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	f.addOrder(vendor.ID, 100000, time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC))

	job := NewSettlementCycleJob(f.settlementUsecase, f.vendors, f.settlements, time.Minute, 100)
	job.RunOnce(ctx, now)

	settlements, _, err := f.settlements.List(ctx, entities.SettlementFilter{VendorID: &vendor.ID})
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, int64(100000), settlements[0].GrossAmount)
	assert.Equal(t, int64(88000), settlements[0].NetAmount)
	// the pass also drives auto-review
	assert.Equal(t, entities.SettlementStatusApproved, settlements[0].Status)
}

func TestSettlementCycleJob_RunOnce_Rerun(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()
	vendor := f.addVendor()
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	f.addOrder(vendor.ID, 100000, time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC))

	job := NewSettlementCycleJob(f.settlementUsecase, f.vendors, f.settlements, time.Minute, 100)
	job.RunOnce(ctx, now)
	job.RunOnce(ctx, now)

	settlements, _, err := f.settlements.List(ctx, entities.SettlementFilter{VendorID: &vendor.ID})
	require.NoError(t, err)
	assert.Len(t, settlements, 1, "a rerun must not double-settle the window")
}

func TestSettlementCycleJob_SkipsInactiveVendor(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()
	vendor := f.addVendor()
	vendor.IsActive = false
	require.NoError(t, f.vendors.Update(ctx, vendor))

	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	f.addOrder(vendor.ID, 100000, time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC))

	job := NewSettlementCycleJob(f.settlementUsecase, f.vendors, f.settlements, time.Minute, 100)
	job.RunOnce(ctx, now)

	settlements, _, err := f.settlements.List(ctx, entities.SettlementFilter{VendorID: &vendor.ID})
	require.NoError(t, err)
	assert.Empty(t, settlements)
}

func TestSettlementCycleJob_ReviewPassIsBounded(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		vendor := f.addVendor()
		require.NoError(t, f.settlements.Create(ctx, &entities.Settlement{
			ID:                 uuid.New(),
			VendorID:           vendor.ID,
			CycleStart:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			CycleEnd:           time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
			GrossAmount:        100000,
			CommissionDeducted: 12000,
			NetAmount:          88000,
			Status:             entities.SettlementStatusPending,
		}))
	}

	job := NewSettlementCycleJob(f.settlementUsecase, f.vendors, f.settlements, time.Minute, 2)

	job.reviewPending(ctx)
	approved := entities.SettlementStatusApproved
	_, reviewed, err := f.settlements.List(ctx, entities.SettlementFilter{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, 2, reviewed, "one bounded batch per tick")

	job.reviewPending(ctx)
	_, reviewed, err = f.settlements.List(ctx, entities.SettlementFilter{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, 3, reviewed, "remainder handled on the next tick")
}

func TestPayoutDispatchJob_RunOnce(t *testing.T) {
	f := newJobFixture()
	ctx := context.Background()
	vendor := f.addVendor()
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	f.addOrder(vendor.ID, 100000, time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC))

	cycleJob := NewSettlementCycleJob(f.settlementUsecase, f.vendors, f.settlements, time.Minute, 100)
	cycleJob.RunOnce(ctx, now)

	job := NewPayoutDispatchJob(f.dispatchUsecase, time.Minute)
	job.RunOnce(ctx)

	settlements, _, err := f.settlements.List(ctx, entities.SettlementFilter{VendorID: &vendor.ID})
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, entities.SettlementStatusDispatched, settlements[0].Status)
	assert.NotNil(t, settlements[0].RailReference)
	assert.Equal(t, 1, f.gateway.submits)
}

func TestDisputeReconcileJob_Lifecycle(t *testing.T) {
	f := newJobFixture()
	resolution := entities.DisputeResolutionRefund
	now := time.Now()
	dispute := &entities.Dispute{
		ID:         uuid.New(),
		OrderID:    uuid.New(), // unknown order, consumed without effect
		Amount:     100000,
		Status:     entities.DisputeStatusResolved,
		Resolution: &resolution,
		FiledAt:    now.Add(-time.Hour),
		ResolvedAt: &now,
	}
	require.NoError(t, f.disputes.Upsert(context.Background(), dispute))

	job := NewDisputeReconcileJob(f.reconcileUsecase, 5*time.Millisecond)

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		d, err := f.disputes.GetByID(ctx, dispute.ID)
		return err == nil && d.ProcessedAt != nil
	}, time.Second, 5*time.Millisecond)

	job.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop")
	}
}

func TestSettlementCycleJob_StopsByContext(t *testing.T) {
	f := newJobFixture()
	job := NewSettlementCycleJob(f.settlementUsecase, f.vendors, f.settlements, time.Millisecond, 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop on context cancel")
	}
}

func TestPayoutDispatchJob_StopsByStop(t *testing.T) {
	f := newJobFixture()
	job := NewPayoutDispatchJob(f.dispatchUsecase, time.Millisecond)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	job.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop")
	}
}
