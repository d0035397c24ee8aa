package service

import (
	"context"
	"testing"

	"soderia/internal/dto"
	"soderia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deliveryFixture struct {
	clients    *stubClientRepo
	orders     *stubOrderRepo
	deliveries *stubDeliveryRepo
	svc        DeliveryService
	client     *model.Client
}

func newDeliveryFixture(t *testing.T) *deliveryFixture {
	t.Helper()
	f := &deliveryFixture{
		clients: newStubClientRepo(),
		orders:  newStubOrderRepo(),
	}
	f.deliveries = newStubDeliveryRepo(f.orders)
	f.svc = NewDeliveryService(f.deliveries, f.orders)
	f.client = seedClient(f.clients, "Don Mario")
	return f
}

func (f *deliveryFixture) seedOrder(t *testing.T, status string) *model.Order {
	t.Helper()
	order := &model.Order{
		ClientID: f.client.ID,
		Status:   status,
		Total:    decimal.NewFromInt(1000),
	}
	require.NoError(t, f.orders.CreateTx(nil, order))
	return order
}

func TestCreateDeliveryAssignsConfirmedOrders(t *testing.T) {
	f := newDeliveryFixture(t)
	o1 := f.seedOrder(t, model.OrderStatusConfirmed)
	o2 := f.seedOrder(t, model.OrderStatusConfirmed)
	driver := uuid.NewString()

	resp, err := f.svc.Create(context.Background(), dto.CreateDeliveryRequest{
		OrderIDs: []string{o1.ID.String(), o2.ID.String()},
		DriverID: &driver,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.OrdersCount)
	assert.Equal(t, 0, resp.DeliveredCount)

	deliveryID := mustParse(t, resp.ID)
	require.NotNil(t, o1.DeliveryID)
	assert.Equal(t, deliveryID, *o1.DeliveryID)
	require.NotNil(t, o2.DeliveryID)
	assert.Equal(t, deliveryID, *o2.DeliveryID)
}

func TestCreateDeliveryRejectsDraftMember(t *testing.T) {
	f := newDeliveryFixture(t)
	confirmed := f.seedOrder(t, model.OrderStatusConfirmed)
	draft := f.seedOrder(t, model.OrderStatusDraft)

	_, err := f.svc.Create(context.Background(), dto.CreateDeliveryRequest{
		OrderIDs: []string{confirmed.ID.String(), draft.ID.String()},
	})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ConflictNotConfirmed, cerr.Reason)
}

func TestCreateDeliveryRejectsAlreadyAssignedMember(t *testing.T) {
	f := newDeliveryFixture(t)
	taken := f.seedOrder(t, model.OrderStatusConfirmed)
	other := uuid.New()
	taken.DeliveryID = &other

	_, err := f.svc.Create(context.Background(), dto.CreateDeliveryRequest{
		OrderIDs: []string{taken.ID.String()},
	})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ConflictAlreadyAssigned, cerr.Reason)
}

func TestCreateDeliveryUnknownOrder(t *testing.T) {
	f := newDeliveryFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateDeliveryRequest{
		OrderIDs: []string{uuid.NewString()},
	})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestDetachOrderFromDelivery(t *testing.T) {
	f := newDeliveryFixture(t)
	o1 := f.seedOrder(t, model.OrderStatusConfirmed)
	o2 := f.seedOrder(t, model.OrderStatusConfirmed)

	resp, err := f.svc.Create(context.Background(), dto.CreateDeliveryRequest{
		OrderIDs: []string{o1.ID.String(), o2.ID.String()},
	})
	require.NoError(t, err)
	deliveryID := mustParse(t, resp.ID)

	require.NoError(t, f.svc.DetachOrder(context.Background(), deliveryID, o1.ID))
	assert.Nil(t, o1.DeliveryID)
	require.NotNil(t, o2.DeliveryID)

	// Detaching an order that belongs to a different delivery is refused.
	err = f.svc.DetachOrder(context.Background(), deliveryID, o1.ID)
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ConflictNotAssigned, cerr.Reason)
}

func TestDeleteDeliveryFreesOrders(t *testing.T) {
	f := newDeliveryFixture(t)
	o1 := f.seedOrder(t, model.OrderStatusConfirmed)

	resp, err := f.svc.Create(context.Background(), dto.CreateDeliveryRequest{
		OrderIDs: []string{o1.ID.String()},
	})
	require.NoError(t, err)
	deliveryID := mustParse(t, resp.ID)

	require.NoError(t, f.svc.Delete(context.Background(), deliveryID))
	assert.Nil(t, o1.DeliveryID)
	assert.Equal(t, model.OrderStatusConfirmed, o1.Status)

	_, err = f.svc.Get(context.Background(), deliveryID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestDeleteDeliveryKeepsDeliveredMembersLinked(t *testing.T) {
	f := newDeliveryFixture(t)
	done := f.seedOrder(t, model.OrderStatusConfirmed)
	o2 := f.seedOrder(t, model.OrderStatusConfirmed)
	o3 := f.seedOrder(t, model.OrderStatusConfirmed)

	resp, err := f.svc.Create(context.Background(), dto.CreateDeliveryRequest{
		OrderIDs: []string{done.ID.String(), o2.ID.String(), o3.ID.String()},
	})
	require.NoError(t, err)
	deliveryID := mustParse(t, resp.ID)
	done.Status = model.OrderStatusDelivered

	require.NoError(t, f.svc.Delete(context.Background(), deliveryID))

	// Confirmed members are freed for re-assignment; the delivered one
	// keeps its settlement trail.
	assert.Nil(t, o2.DeliveryID)
	assert.Nil(t, o3.DeliveryID)
	assert.Equal(t, model.OrderStatusConfirmed, o2.Status)
	require.NotNil(t, done.DeliveryID)
	assert.Equal(t, deliveryID, *done.DeliveryID)
}

func TestDeliveryProgress(t *testing.T) {
	f := newDeliveryFixture(t)
	o1 := f.seedOrder(t, model.OrderStatusConfirmed)
	o2 := f.seedOrder(t, model.OrderStatusConfirmed)
	o3 := f.seedOrder(t, model.OrderStatusConfirmed)

	resp, err := f.svc.Create(context.Background(), dto.CreateDeliveryRequest{
		OrderIDs: []string{o1.ID.String(), o2.ID.String(), o3.ID.String()},
	})
	require.NoError(t, err)
	deliveryID := mustParse(t, resp.ID)

	o1.Status = model.OrderStatusDelivered
	o2.Status = model.OrderStatusDelivered

	progress, err := f.svc.Progress(context.Background(), deliveryID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.OrdersCount)
	assert.Equal(t, 2, progress.DeliveredCount)
}
