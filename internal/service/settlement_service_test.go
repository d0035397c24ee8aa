package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"soderia/internal/dto"
	"soderia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlementFixture struct {
	clients *stubClientRepo
	orders  *stubOrderRepo
	ledger  *stubLedgerRepo
	cash    *stubCashRepo
	svc     SettlementService
	client  *model.Client
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	f := &settlementFixture{
		clients: newStubClientRepo(),
		orders:  newStubOrderRepo(),
		ledger:  newStubLedgerRepo(),
		cash:    newStubCashRepo(),
	}
	ledgerSvc := NewLedgerService(f.ledger, f.clients)
	f.svc = NewSettlementService(f.orders, ledgerSvc, f.cash)
	f.client = seedClient(f.clients, "Doña Rosa")
	return f
}

// seedAssignedOrder inserts a CONFIRMED order already on a delivery: the
// state Deliver expects to find.
func (f *settlementFixture) seedAssignedOrder(t *testing.T, total int64, returnables int) *model.Order {
	t.Helper()
	deliveryID := uuid.New()
	order := &model.Order{
		ClientID:   f.client.ID,
		Status:     model.OrderStatusConfirmed,
		Total:      decimal.NewFromInt(total),
		DeliveryID: &deliveryID,
	}
	if returnables > 0 {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:    uuid.New(),
			ProductName:  "Sifón 1.5L",
			Quantity:     returnables,
			UnitPrice:    decimal.NewFromInt(500),
			Subtotal:     decimal.NewFromInt(500 * int64(returnables)),
			IsReturnable: true,
		})
	}
	require.NoError(t, f.orders.CreateTx(nil, order))
	return order
}

func TestDeliverOnCurrentAccountPostsDebit(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedAssignedOrder(t, 3000, 6)

	resp, err := f.svc.Deliver(context.Background(), order.ID, dto.DeliverOrderRequest{
		PaymentMethod:      model.PaymentCurrentAccount,
		ReturnedContainers: 4,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusDelivered, resp.Order.Status)
	require.NotNil(t, resp.LedgerEntryID)
	assert.Nil(t, resp.CashMovementID)
	assert.Equal(t, 2, resp.ContainerDelta)

	// Debt and containers grew together, atomically with the entry.
	assert.True(t, f.client.MonetaryBalance.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, 2, f.client.ContainerBalance)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, model.LedgerDebit, f.ledger.entries[0].Type)
	require.NotNil(t, f.ledger.entries[0].OrderID)
	assert.Equal(t, order.ID, *f.ledger.entries[0].OrderID)
	require.Len(t, f.ledger.containers, 1)
	assert.Equal(t, 2, f.ledger.containers[0].Delta)
	assert.Empty(t, f.cash.movements)
}

func TestDeliverCashCreatesMovementNotDebt(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedAssignedOrder(t, 1500, 0)

	resp, err := f.svc.Deliver(context.Background(), order.ID, dto.DeliverOrderRequest{
		PaymentMethod: model.PaymentCash,
	}, nil)
	require.NoError(t, err)

	require.NotNil(t, resp.CashMovementID)
	assert.Nil(t, resp.LedgerEntryID)
	assert.Equal(t, 0, resp.ContainerDelta)

	assert.True(t, f.client.MonetaryBalance.IsZero())
	assert.Empty(t, f.ledger.entries)
	assert.Empty(t, f.ledger.containers)
	require.Len(t, f.cash.movements, 1)
	mv := f.cash.movements[0]
	assert.Equal(t, model.CashIncome, mv.Type)
	assert.Equal(t, model.PaymentCash, mv.PaymentMethod)
	assert.True(t, mv.Amount.Equal(decimal.NewFromInt(1500)))
	require.NotNil(t, mv.ReferenceID)
	assert.Equal(t, order.ID, *mv.ReferenceID)
}

func TestDeliverTransferKeepsReference(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedAssignedOrder(t, 2000, 0)
	ref := "MP-12345"

	_, err := f.svc.Deliver(context.Background(), order.ID, dto.DeliverOrderRequest{
		PaymentMethod: model.PaymentTransfer,
		TransferRef:   &ref,
	}, nil)
	require.NoError(t, err)

	require.Len(t, f.cash.movements, 1)
	assert.Equal(t, model.PaymentTransfer, f.cash.movements[0].PaymentMethod)
	assert.True(t, strings.Contains(f.cash.movements[0].Concept, ref))
}

func TestDeliverNegativeContainerNet(t *testing.T) {
	f := newSettlementFixture(t)
	f.client.ContainerBalance = 10
	order := f.seedAssignedOrder(t, 500, 1)

	// Client hands back more than this order issued.
	resp, err := f.svc.Deliver(context.Background(), order.ID, dto.DeliverOrderRequest{
		PaymentMethod:      model.PaymentCash,
		ReturnedContainers: 5,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, -4, resp.ContainerDelta)
	assert.Equal(t, 6, f.client.ContainerBalance)
	require.Len(t, f.ledger.containers, 1)
	assert.Equal(t, -4, f.ledger.containers[0].Delta)
}

func TestDeliverEvenExchangePostsNothing(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedAssignedOrder(t, 3000, 6)

	resp, err := f.svc.Deliver(context.Background(), order.ID, dto.DeliverOrderRequest{
		PaymentMethod:      model.PaymentCash,
		ReturnedContainers: 6,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, resp.ContainerDelta)
	assert.Empty(t, f.ledger.containers)
	assert.Equal(t, 0, f.client.ContainerBalance)
}

func TestDeliverFailureClassification(t *testing.T) {
	f := newSettlementFixture(t)

	deliver := func(id uuid.UUID) error {
		_, err := f.svc.Deliver(context.Background(), id, dto.DeliverOrderRequest{
			PaymentMethod: model.PaymentCash,
		}, nil)
		return err
	}

	t.Run("unknown order", func(t *testing.T) {
		var nf *NotFoundError
		require.ErrorAs(t, deliver(uuid.New()), &nf)
	})

	t.Run("draft order", func(t *testing.T) {
		order := f.seedAssignedOrder(t, 100, 0)
		f.orders.orders[order.ID].Status = model.OrderStatusDraft
		var cerr *ConflictError
		require.ErrorAs(t, deliver(order.ID), &cerr)
		assert.Equal(t, ConflictNotConfirmed, cerr.Reason)
	})

	t.Run("confirmed but unassigned", func(t *testing.T) {
		order := f.seedAssignedOrder(t, 100, 0)
		f.orders.orders[order.ID].DeliveryID = nil
		var cerr *ConflictError
		require.ErrorAs(t, deliver(order.ID), &cerr)
		assert.Equal(t, ConflictNotAssigned, cerr.Reason)
	})

	t.Run("cancelled", func(t *testing.T) {
		order := f.seedAssignedOrder(t, 100, 0)
		f.orders.orders[order.ID].Status = model.OrderStatusCancelled
		var cerr *ConflictError
		require.ErrorAs(t, deliver(order.ID), &cerr)
		assert.Equal(t, ConflictCancelled, cerr.Reason)
	})

	t.Run("already delivered", func(t *testing.T) {
		order := f.seedAssignedOrder(t, 100, 0)
		require.NoError(t, deliver(order.ID))
		var cerr *ConflictError
		require.ErrorAs(t, deliver(order.ID), &cerr)
		assert.Equal(t, ConflictAlreadyDelivered, cerr.Reason)
	})
}

func TestConcurrentDeliverExactlyOneWins(t *testing.T) {
	f := newSettlementFixture(t)
	order := f.seedAssignedOrder(t, 2500, 2)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Deliver(context.Background(), order.ID, dto.DeliverOrderRequest{
				PaymentMethod: model.PaymentCurrentAccount,
			}, nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var cerr *ConflictError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, ConflictAlreadyDelivered, cerr.Reason)
	}
	assert.Equal(t, 1, wins)

	// The loser posted nothing: one debit, one container entry, once.
	assert.Len(t, f.ledger.entries, 1)
	assert.Len(t, f.ledger.containers, 1)
	assert.True(t, f.client.MonetaryBalance.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, 2, f.client.ContainerBalance)
}

func TestDeliverHeldAccountRefused(t *testing.T) {
	f := newSettlementFixture(t)
	f.client.LedgerHold = true
	order := f.seedAssignedOrder(t, 800, 0)

	_, err := f.svc.Deliver(context.Background(), order.ID, dto.DeliverOrderRequest{
		PaymentMethod: model.PaymentCurrentAccount,
	}, nil)
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "LEDGER_HOLD", cerr.Reason)
	assert.Empty(t, f.ledger.entries)
}
