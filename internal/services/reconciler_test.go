package services_test

import (
	"context"
	"testing"
	"time"

	"campusconnect/internal/logging"
	"campusconnect/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler_RemovesOnlyOrderedEntries(t *testing.T) {
	f := newFixture(t)
	c := seedTwoSupplierCart(t, f)
	ctx := context.Background()

	// Order S1 while the cart cleanup fails, leaving both entries behind.
	orders := failingOrders{OrderRepository: f.orders, supplierID: c.s2.ID}
	_, err := f.coordinator(coordinatorOpts{orders: orders, carts: failingCartCleanup{f.carts}}).
		Checkout(ctx, customerID, testDelivery)
	require.NoError(t, err)

	r := services.NewReconciler(f.carts, f.orders, 15*time.Minute, logging.Discard())
	removed, err := r.ReconcileCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, c.a.ID, removed[0].ProductID)

	cart, err := f.carts.ListByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, c.b.ID, cart[0].ProductID)

	again, err := r.ReconcileCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestReconciler_IgnoresDifferentQuantityAndOldOrders(t *testing.T) {
	f := newFixture(t)
	c := seedTwoSupplierCart(t, f)
	ctx := context.Background()

	_, err := f.coordinator(coordinatorOpts{carts: failingCartCleanup{f.carts}}).Checkout(ctx, customerID, testDelivery)
	require.NoError(t, err)

	// The customer changed their mind about A: no longer an exact copy.
	require.NoError(t, f.cart.SetQuantity(ctx, customerID, c.a.ID, 3))

	// A zero window sees no recent orders at all.
	none := services.NewReconciler(f.carts, f.orders, time.Nanosecond, logging.Discard())
	removed, err := none.ReconcileCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, removed)

	r := services.NewReconciler(f.carts, f.orders, 15*time.Minute, logging.Discard())
	removed, err = r.ReconcileCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, c.b.ID, removed[0].ProductID)
}
