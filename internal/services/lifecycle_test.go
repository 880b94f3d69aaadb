package services_test

import (
	"context"
	"errors"
	"testing"

	"campusconnect/internal/logging"
	"campusconnect/internal/models"
	"campusconnect/internal/repositories"
	"campusconnect/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type placedOrder struct {
	id       string
	customer services.Actor
	supplier services.Actor
}

func placeOrder(t *testing.T, f *fixture) placedOrder {
	t.Helper()
	s := f.supplier(t, "owner-s1", "Chez Awa")
	p := f.product(t, s.ID, "Yassa poulet", 1000, 10)
	f.addToCart(t, p.ID, 2)

	res, err := f.coordinator(coordinatorOpts{}).Checkout(context.Background(), customerID, testDelivery)
	require.NoError(t, err)
	require.Len(t, res.Created, 1)

	supplier, err := f.actors.Supplier(context.Background(), "owner-s1")
	require.NoError(t, err)
	return placedOrder{id: res.Created[0].OrderID, customer: f.actors.Customer(customerID), supplier: supplier}
}

func newLifecycle(repo repositories.OrderRepository, pub services.EventPublisher) *services.OrderLifecycle {
	return services.NewOrderLifecycle(repo, pub, logging.Discard())
}

func requireTransitionError(t *testing.T, err error, current models.OrderStatus) {
	t.Helper()
	var terr *services.TransitionError
	require.True(t, errors.As(err, &terr), "got %v", err)
	assert.Equal(t, current, terr.Current)
}

func TestLifecycle_FullForwardPath(t *testing.T) {
	f := newFixture(t)
	o := placeOrder(t, f)

	pub := new(MockPublisher)
	pub.On("PublishStatusChanged", mock.Anything, mock.AnythingOfType("models.OrderStatusChangedEvent")).Return(nil).Times(4)
	lc := newLifecycle(f.orders, pub)

	steps := []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusCompleted,
	}
	for _, next := range steps {
		order, err := lc.Advance(context.Background(), o.id, next, nil, o.supplier)
		require.NoError(t, err, "advance to %s", next)
		assert.Equal(t, next, order.Status)
	}

	history, err := f.orders.ListTransitions(context.Background(), o.id)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, models.OrderStatus(""), history[0].FromStatus)
	assert.Equal(t, models.OrderStatusReady, history[4].FromStatus)
	assert.Equal(t, models.ActorSupplier, history[4].ActorRole)
	assert.Equal(t, o.supplier.ID, history[4].ActorID)
	pub.AssertExpectations(t)
}

func TestLifecycle_SkippingAStepIsRejected(t *testing.T) {
	f := newFixture(t)
	o := placeOrder(t, f)
	lc := newLifecycle(f.orders, nil)

	_, err := lc.Advance(context.Background(), o.id, models.OrderStatusReady, nil, o.supplier)
	requireTransitionError(t, err, models.OrderStatusPending)

	order, err := f.orders.GetByID(context.Background(), o.id)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestLifecycle_CancelAfterConfirmIsRejected(t *testing.T) {
	f := newFixture(t)
	o := placeOrder(t, f)
	lc := newLifecycle(f.orders, nil)

	_, err := lc.Advance(context.Background(), o.id, models.OrderStatusConfirmed, nil, o.supplier)
	require.NoError(t, err)

	_, err = lc.Cancel(context.Background(), o.id, o.customer)
	requireTransitionError(t, err, models.OrderStatusConfirmed)
}

func TestLifecycle_CustomerCancelsPending(t *testing.T) {
	f := newFixture(t)
	o := placeOrder(t, f)
	lc := newLifecycle(f.orders, nil)

	order, err := lc.Cancel(context.Background(), o.id, o.customer)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)

	// Terminal: nobody may move it again.
	for _, to := range models.AllOrderStatuses {
		_, err := lc.Transition(context.Background(), o.id, to, nil, o.customer)
		requireTransitionError(t, err, models.OrderStatusCancelled)
		_, err = lc.Transition(context.Background(), o.id, to, nil, o.supplier)
		requireTransitionError(t, err, models.OrderStatusCancelled)
	}
}

func TestLifecycle_RolesAndOwnership(t *testing.T) {
	f := newFixture(t)
	o := placeOrder(t, f)
	lc := newLifecycle(f.orders, nil)

	// Supplier cannot cancel; customer cannot advance.
	_, err := lc.Cancel(context.Background(), o.id, o.supplier)
	requireTransitionError(t, err, models.OrderStatusPending)
	_, err = lc.Advance(context.Background(), o.id, models.OrderStatusConfirmed, nil, o.customer)
	requireTransitionError(t, err, models.OrderStatusPending)

	stranger := f.actors.Customer("cust-2")
	_, err = lc.Cancel(context.Background(), o.id, stranger)
	assert.ErrorIs(t, err, services.ErrForbidden)

	other := f.supplier(t, "owner-s2", "Print Shop")
	_, err = lc.Advance(context.Background(), o.id, models.OrderStatusConfirmed, nil,
		services.Actor{Role: models.ActorSupplier, ID: other.ID})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = lc.Cancel(context.Background(), "missing", o.customer)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestLifecycle_ExpectedStatusMismatch(t *testing.T) {
	f := newFixture(t)
	o := placeOrder(t, f)
	lc := newLifecycle(f.orders, nil)

	expected := models.OrderStatusConfirmed
	_, err := lc.Advance(context.Background(), o.id, models.OrderStatusPreparing, &expected, o.supplier)
	requireTransitionError(t, err, models.OrderStatusPending)

	_, err = lc.Advance(context.Background(), o.id, "shipped", nil, o.supplier)
	var verr *services.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestLifecycle_RacedTransitionIsAConflict(t *testing.T) {
	f := newFixture(t)
	o := placeOrder(t, f)
	lc := newLifecycle(racingOrders{f.orders}, nil)

	_, err := lc.Advance(context.Background(), o.id, models.OrderStatusConfirmed, nil, o.supplier)
	requireTransitionError(t, err, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, repositories.ErrStatusConflict)

	history, err := f.orders.ListTransitions(context.Background(), o.id)
	require.NoError(t, err)
	require.Len(t, history, 2, "only the winning transition is recorded")
	assert.Equal(t, models.OrderStatusCancelled, history[1].ToStatus)
}

func TestActorResolver_SupplierWithoutShopIsForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.actors.Supplier(context.Background(), "nobody")
	assert.ErrorIs(t, err, services.ErrForbidden)
}
