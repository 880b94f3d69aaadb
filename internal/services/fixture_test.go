package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campusconnect/internal/config"
	"campusconnect/internal/database"
	"campusconnect/internal/logging"
	"campusconnect/internal/models"
	"campusconnect/internal/repositories"
	"campusconnect/internal/services"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const customerID = "cust-1"

var testDelivery = services.DeliveryInfo{
	Address: "Pavillon B, chambre 4",
	Phone:   "+221771112233",
	Notes:   "ring twice",
}

func newFixturePricing() services.PricingPolicy {
	return services.NewPricingPolicy(config.PricingConfig{
		DeliveryFlatFee:       1500,
		DeliveryFreeThreshold: 50000,
		PromoCodes:            map[string]int{"WELCOME10": 10},
	})
}

type fixture struct {
	db        *gorm.DB
	carts     *repositories.GORMCartRepository
	products  *repositories.GORMProductRepository
	suppliers *repositories.GORMSupplierRepository
	orders    *repositories.GORMOrderRepository
	pricing   services.PricingPolicy
	cart      *services.CartService
	actors    *services.ActorResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.OpenTest(t)
	f := &fixture{
		db:        db,
		carts:     repositories.NewGORMCartRepository(db),
		products:  repositories.NewGORMProductRepository(db),
		suppliers: repositories.NewGORMSupplierRepository(db),
		orders:    repositories.NewGORMOrderRepository(db),
		pricing:   newFixturePricing(),
	}
	f.cart = services.NewCartService(f.carts, f.products, logging.Discard())
	f.actors = services.NewActorResolver(f.suppliers)
	return f
}

func (f *fixture) supplier(t *testing.T, owner, name string) models.Supplier {
	t.Helper()
	s := models.Supplier{OwnerUserID: owner, Name: name}
	require.NoError(t, f.suppliers.Create(context.Background(), &s))
	return s
}

func (f *fixture) product(t *testing.T, supplierID, name string, price int64, stock int) models.Product {
	t.Helper()
	p := models.Product{SupplierID: supplierID, Name: name, Price: price, Stock: stock}
	require.NoError(t, f.products.Create(context.Background(), &p))
	return p
}

func (f *fixture) addToCart(t *testing.T, productID string, qty int) {
	t.Helper()
	_, err := f.cart.Add(context.Background(), customerID, productID, qty)
	require.NoError(t, err)
}

type coordinatorOpts struct {
	orders      repositories.OrderRepository
	carts       repositories.CartRepository
	locker      services.Locker
	events      services.EventPublisher
	parallelism int
}

func (f *fixture) coordinator(o coordinatorOpts) *services.CheckoutCoordinator {
	if o.orders == nil {
		o.orders = f.orders
	}
	if o.carts == nil {
		o.carts = f.carts
	}
	logger := logging.Discard()
	return services.NewCheckoutCoordinator(
		o.carts,
		f.cart,
		services.NewCartPartitioner(f.pricing),
		services.NewOrderFactory(o.orders, f.pricing),
		services.NewReconciler(f.carts, f.orders, 15*time.Minute, logger),
		f.pricing,
		o.locker,
		o.events,
		services.CheckoutOptions{Parallelism: o.parallelism},
		logger,
	)
}

// failingOrders fails every order write for one supplier.
type failingOrders struct {
	repositories.OrderRepository
	supplierID string
}

func (r failingOrders) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderLineItem, created models.OrderTransition) error {
	if order.SupplierID == r.supplierID {
		return errors.New("connection reset by peer")
	}
	return r.OrderRepository.CreateWithItems(ctx, order, items, created)
}

// failingCartCleanup leaves the cart untouched after orders are written.
type failingCartCleanup struct {
	repositories.CartRepository
}

func (failingCartCleanup) DeleteEntries(context.Context, string, []uint) (int64, error) {
	return 0, errors.New("lock wait timeout")
}

// racingOrders lets a concurrent writer cancel the order just before the
// status update lands.
type racingOrders struct {
	repositories.OrderRepository
}

func (r racingOrders) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus, tr models.OrderTransition) error {
	rival := models.OrderTransition{FromStatus: from, ToStatus: models.OrderStatusCancelled,
		ActorRole: models.ActorCustomer, ActorID: customerID, At: time.Now()}
	if err := r.OrderRepository.UpdateStatus(ctx, id, from, models.OrderStatusCancelled, rival); err != nil {
		return err
	}
	return r.OrderRepository.UpdateStatus(ctx, id, from, to, tr)
}

// recordingLocker records the keys it was asked to hold.
type recordingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return fn(ctx)
}

// MockPublisher is a mock implementation of services.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderCreated(ctx context.Context, event models.OrderCreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) PublishStatusChanged(ctx context.Context, event models.OrderStatusChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
