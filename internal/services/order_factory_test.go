package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusconnect/internal/config"
	"campusconnect/internal/models"
	"campusconnect/internal/repositories"
	"campusconnect/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of repositories.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderLineItem, created models.OrderTransition) error {
	args := m.Called(ctx, order, items, created)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus, tr models.OrderTransition) error {
	args := m.Called(ctx, id, from, to, tr)
	return args.Error(0)
}

func (m *MockOrderRepository) ListByCustomer(ctx context.Context, id string, status *models.OrderStatus) ([]models.Order, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListBySupplier(ctx context.Context, id string, status *models.OrderStatus) ([]models.Order, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) ListPendingSince(ctx context.Context, id string, since time.Time) ([]models.Order, error) {
	args := m.Called(ctx, id, since)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetLineItems(ctx context.Context, id string) ([]models.OrderLineItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]models.OrderLineItem), args.Error(1)
}

func (m *MockOrderRepository) ListTransitions(ctx context.Context, id string) ([]models.OrderTransition, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]models.OrderTransition), args.Error(1)
}

func (m *MockOrderRepository) StatusTotals(ctx context.Context, id string) ([]repositories.StatusTotal, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]repositories.StatusTotal), args.Error(1)
}

func validIntent() services.OrderIntent {
	intents, _ := newPartitioner().Partition(customerID, []models.ResolvedCartEntry{
		resolved(1, catalogProduct("A", "S1", 1000), 2),
	}, testDelivery)
	return intents[0]
}

func TestOrderFactory_Create(t *testing.T) {
	repo := new(MockOrderRepository)
	factory := services.NewOrderFactory(repo, newFixturePricing())

	repo.On("CreateWithItems", mock.Anything,
		mock.MatchedBy(func(o *models.Order) bool {
			return o.Status == models.OrderStatusPending && o.TotalAmount == 3500 && o.SupplierID == "S1"
		}),
		mock.MatchedBy(func(items []models.OrderLineItem) bool {
			return len(items) == 1 && *items[0].ProductID == "A" && items[0].Subtotal == 2000 && items[0].ObservedStock == 10
		}),
		mock.MatchedBy(func(tr models.OrderTransition) bool {
			return tr.FromStatus == "" && tr.ToStatus == models.OrderStatusPending && tr.ActorID == customerID
		}),
	).Return(nil).Once()

	order, err := factory.Create(context.Background(), validIntent())
	require.NoError(t, err)
	assert.Equal(t, int64(3500), order.TotalAmount)
	repo.AssertExpectations(t)
}

func TestOrderFactory_RejectsBeforeWriting(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*services.OrderIntent)
		field  string
	}{
		{"no items", func(in *services.OrderIntent) { in.Items = nil }, "items"},
		{"zero quantity", func(in *services.OrderIntent) { in.Items[0].Quantity = 0; in.Items[0].Subtotal = 0 }, "items[0].quantity"},
		{"negative price", func(in *services.OrderIntent) { in.Items[0].UnitPrice = -1 }, "items[0].unit_price"},
		{"missing phone", func(in *services.OrderIntent) { in.DeliveryPhone = "" }, "delivery_phone"},
		{"total mismatch", func(in *services.OrderIntent) { in.TotalAmount = 100 }, "total_amount"},
		{"subtotal mismatch", func(in *services.OrderIntent) { in.Items[0].Subtotal = 1 }, "items[0].subtotal"},
		{"over stock", func(in *services.OrderIntent) { in.Items[0].ObservedStock = 1 }, "items[0].quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockOrderRepository)
			factory := services.NewOrderFactory(repo, newFixturePricing())

			intent := validIntent()
			tt.mutate(&intent)
			_, err := factory.Create(context.Background(), intent)

			var verr *services.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
			repo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestOrderFactory_RejectsZeroTotal(t *testing.T) {
	// Free delivery plus a full promo prices the order at nothing.
	pricing := services.NewPricingPolicy(config.PricingConfig{
		DeliveryFlatFee:       1500,
		DeliveryFreeThreshold: 50000,
		PromoCodes:            map[string]int{"FREE": 100},
	})
	delivery := testDelivery
	delivery.PromoCode = "FREE"
	intents, _ := services.NewCartPartitioner(pricing).Partition(customerID, []models.ResolvedCartEntry{
		resolved(1, catalogProduct("A", "S1", 60000), 1),
	}, delivery)
	require.Len(t, intents, 1)
	require.Equal(t, int64(0), intents[0].TotalAmount)

	repo := new(MockOrderRepository)
	_, err := services.NewOrderFactory(repo, pricing).Create(context.Background(), intents[0])

	var verr *services.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "gt=0", verr.Fields["total_amount"])
	repo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderFactory_PersistenceError(t *testing.T) {
	repo := new(MockOrderRepository)
	factory := services.NewOrderFactory(repo, newFixturePricing())
	cause := errors.New("connection refused")
	repo.On("CreateWithItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(cause).Once()

	_, err := factory.Create(context.Background(), validIntent())

	var perr *services.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, cause)
}
