package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
)

func TestUnitOfWork_CommitsOnSuccess(t *testing.T) {
	db := newTestDB(t)
	createOrderTable(t, db)
	createSettlementTables(t, db)
	uow := NewUnitOfWork(db)
	orderRepo := NewOrderRepository(db)
	settlementRepo := NewSettlementRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	order := seedOrder(vendorID, 100000, time.Now())
	require.NoError(t, orderRepo.Upsert(ctx, order))

	settlement := seedSettlement(vendorID, time.Now(), entities.SettlementStatusPending)
	err := uow.Do(ctx, func(txCtx context.Context) error {
		if err := settlementRepo.Create(txCtx, settlement); err != nil {
			return err
		}
		order.CommissionAmount = 12000
		order.NetAmount = 88000
		return orderRepo.AssignToSettlement(txCtx, settlement.ID, []*entities.Order{order})
	})
	require.NoError(t, err)

	got, err := settlementRepo.GetByID(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, settlement.ID, got.ID)

	gotOrder, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, gotOrder.SettlementID)
	assert.Equal(t, settlement.ID, *gotOrder.SettlementID)
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	createOrderTable(t, db)
	createSettlementTables(t, db)
	uow := NewUnitOfWork(db)
	orderRepo := NewOrderRepository(db)
	settlementRepo := NewSettlementRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	order := seedOrder(vendorID, 100000, time.Now())
	require.NoError(t, orderRepo.Upsert(ctx, order))
	// order already claimed elsewhere
	require.NoError(t, orderRepo.AssignToSettlement(ctx, uuid.New(), []*entities.Order{order}))

	settlement := seedSettlement(vendorID, time.Now(), entities.SettlementStatusPending)
	err := uow.Do(ctx, func(txCtx context.Context) error {
		if err := settlementRepo.Create(txCtx, settlement); err != nil {
			return err
		}
		return orderRepo.AssignToSettlement(txCtx, settlement.ID, []*entities.Order{order})
	})
	require.ErrorIs(t, err, domainerrors.ErrOrderAlreadySettled)

	// the settlement insert must have been rolled back with it
	_, err = settlementRepo.GetByID(ctx, settlement.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUnitOfWork_ReusesEnclosingTransaction(t *testing.T) {
	db := newTestDB(t)
	createSettlementTables(t, db)
	uow := NewUnitOfWork(db)
	settlementRepo := NewSettlementRepository(db)
	ctx := context.Background()

	settlement := seedSettlement(uuid.New(), time.Now(), entities.SettlementStatusPending)
	sentinel := errors.New("abort")

	err := uow.Do(ctx, func(outer context.Context) error {
		return uow.Do(outer, func(inner context.Context) error {
			if err := settlementRepo.Create(inner, settlement); err != nil {
				return err
			}
			return sentinel
		})
	})
	require.ErrorIs(t, err, sentinel)

	// inner work shares the outer transaction, so the rollback covers it
	_, err = settlementRepo.GetByID(ctx, settlement.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
