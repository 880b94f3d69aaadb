package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/repositories"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Failure kinds reported per partition.
const (
	FailureValidation  = "validation"
	FailurePersistence = "persistence"
)

// CreatedOrder summarises one order written by checkout.
type CreatedOrder struct {
	OrderID     string `json:"order_id"`
	SupplierID  string `json:"supplier_id"`
	TotalAmount int64  `json:"total_amount"`
}

// FailedPartition is a supplier whose order could not be created. Its cart
// entries are left in place.
type FailedPartition struct {
	SupplierID string            `json:"supplier_id"`
	Kind       string            `json:"kind"`
	Reason     string            `json:"reason"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// CheckoutResult is the aggregate outcome of one checkout.
type CheckoutResult struct {
	Created []CreatedOrder    `json:"created"`
	Failed  []FailedPartition `json:"failed"`
	Skipped []SkippedEntry    `json:"skipped"`
	// Reconciled are stale entries removed before partitioning.
	Reconciled []models.CartEntry `json:"reconciled,omitempty"`
	// Inconsistent lists orders created whose cart entries could not be
	// cleared. The next reconciliation removes them.
	Inconsistent []string `json:"inconsistent,omitempty"`
}

// CheckoutPreview is the priced partitioning of a cart, without writes.
type CheckoutPreview struct {
	Partitions   []OrderIntent  `json:"partitions"`
	Skipped      []SkippedEntry `json:"skipped"`
	PromoCode    string         `json:"promo_code,omitempty"`
	PromoApplied bool           `json:"promo_applied"`
}

// CheckoutOptions tunes the coordinator.
type CheckoutOptions struct {
	Parallelism int
	LockTTL     time.Duration
}

// CheckoutCoordinator turns a cart into supplier orders. Each partition
// succeeds or fails on its own.
type CheckoutCoordinator struct {
	carts       repositories.CartRepository
	cartService *CartService
	partitioner *CartPartitioner
	factory     *OrderFactory
	reconciler  *Reconciler
	pricing     PricingPolicy
	locker      Locker
	events      EventPublisher
	opts        CheckoutOptions
	logger      logrus.FieldLogger
}

// NewCheckoutCoordinator creates a new CheckoutCoordinator. A nil locker
// falls back to a LocalLock, a nil publisher drops events.
func NewCheckoutCoordinator(
	carts repositories.CartRepository,
	cartService *CartService,
	partitioner *CartPartitioner,
	factory *OrderFactory,
	reconciler *Reconciler,
	pricing PricingPolicy,
	locker Locker,
	events EventPublisher,
	opts CheckoutOptions,
	logger logrus.FieldLogger,
) *CheckoutCoordinator {
	if locker == nil {
		locker = NewLocalLock()
	}
	if events == nil {
		events = NopPublisher{}
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 15 * time.Second
	}
	return &CheckoutCoordinator{
		carts:       carts,
		cartService: cartService,
		partitioner: partitioner,
		factory:     factory,
		reconciler:  reconciler,
		pricing:     pricing,
		locker:      locker,
		events:      events,
		opts:        opts,
		logger:      logger,
	}
}

func checkoutLockKey(customerID string) string {
	return "lock:checkout:" + customerID
}

// Checkout creates one order per supplier in the customer's cart. Missing
// delivery contact or an empty cart fail the whole call before any write;
// after that, failures are reported per partition in the result.
func (c *CheckoutCoordinator) Checkout(ctx context.Context, customerID string, delivery DeliveryInfo) (*CheckoutResult, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(delivery.Address) == "" {
		fields["delivery_address"] = "required"
	}
	if strings.TrimSpace(delivery.Phone) == "" {
		fields["delivery_phone"] = "required"
	}
	if len(fields) > 0 {
		return nil, newValidationError("missing delivery contact", fields)
	}

	var result *CheckoutResult
	err := c.locker.WithLock(ctx, checkoutLockKey(customerID), c.opts.LockTTL, func(ctx context.Context) error {
		var err error
		result, err = c.checkoutLocked(ctx, customerID, delivery)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *CheckoutCoordinator) checkoutLocked(ctx context.Context, customerID string, delivery DeliveryInfo) (*CheckoutResult, error) {
	log := c.logger.WithField("customer_id", customerID)

	result := &CheckoutResult{
		Created: []CreatedOrder{},
		Failed:  []FailedPartition{},
		Skipped: []SkippedEntry{},
	}

	reconciled, err := c.reconciler.ReconcileCustomer(ctx, customerID)
	if err != nil {
		log.WithError(err).Warn("cart reconciliation failed, continuing checkout")
	}
	result.Reconciled = reconciled

	entries, err := c.cartService.List(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if len(reconciled) > 0 {
			log.WithField("reconciled", len(reconciled)).Info("cart was already ordered")
			return result, nil
		}
		return nil, ErrEmptyCart
	}

	intents, skipped := c.partitioner.Partition(customerID, entries, delivery)
	if len(skipped) > 0 {
		result.Skipped = skipped
		log.WithField("skipped", len(skipped)).Warn("cart entries could not be resolved")
	}

	outcomes := make([]partitionOutcome, len(intents))
	var g errgroup.Group
	g.SetLimit(c.opts.Parallelism)
	for i := range intents {
		g.Go(func() error {
			outcomes[i] = c.runPartition(ctx, intents[i])
			return nil
		})
	}
	g.Wait()

	for i, out := range outcomes {
		switch {
		case out.failure != nil:
			result.Failed = append(result.Failed, *out.failure)
		default:
			result.Created = append(result.Created, CreatedOrder{
				OrderID:     out.order.ID,
				SupplierID:  intents[i].SupplierID,
				TotalAmount: out.order.TotalAmount,
			})
			if out.inconsistent {
				result.Inconsistent = append(result.Inconsistent, out.order.ID)
			}
		}
	}

	log.WithFields(logrus.Fields{
		"created": len(result.Created),
		"failed":  len(result.Failed),
		"skipped": len(result.Skipped),
	}).Info("checkout finished")
	return result, nil
}

type partitionOutcome struct {
	order        *models.Order
	failure      *FailedPartition
	inconsistent bool
}

// runPartition creates one supplier order, then deletes exactly the cart
// entries that fed it.
func (c *CheckoutCoordinator) runPartition(ctx context.Context, intent OrderIntent) partitionOutcome {
	log := c.logger.WithFields(logrus.Fields{
		"customer_id": intent.CustomerID,
		"supplier_id": intent.SupplierID,
	})

	order, err := c.factory.Create(ctx, intent)
	if err != nil {
		log.WithError(err).Warn("order creation failed for partition")
		return partitionOutcome{failure: toFailure(intent.SupplierID, err)}
	}

	out := partitionOutcome{order: order}
	deleted, err := c.carts.DeleteEntries(ctx, intent.CustomerID, intent.SourceEntries)
	if err != nil || deleted != int64(len(intent.SourceEntries)) {
		log.WithError(err).WithFields(logrus.Fields{
			"order_id": order.ID,
			"expected": len(intent.SourceEntries),
			"deleted":  deleted,
		}).Error("order created but cart entries were not cleared")
		out.inconsistent = true
	}

	event := models.OrderCreatedEvent{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		SupplierID:  order.SupplierID,
		TotalAmount: order.TotalAmount,
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	}
	if err := c.events.PublishOrderCreated(ctx, event); err != nil {
		log.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order created event")
	}
	return out
}

func toFailure(supplierID string, err error) *FailedPartition {
	f := &FailedPartition{SupplierID: supplierID, Kind: FailurePersistence, Reason: err.Error()}
	var verr *ValidationError
	if errors.As(err, &verr) {
		f.Kind = FailureValidation
		f.Reason = verr.Message
		f.Fields = verr.Fields
	}
	return f
}

// Preview partitions and prices the cart exactly as Checkout would.
func (c *CheckoutCoordinator) Preview(ctx context.Context, customerID, promoCode string) (*CheckoutPreview, error) {
	entries, err := c.cartService.List(ctx, customerID)
	if err != nil {
		return nil, err
	}

	intents, skipped := c.partitioner.Partition(customerID, entries, DeliveryInfo{PromoCode: promoCode})
	_, known := c.pricing.PromoDiscount(promoCode, 0)

	preview := &CheckoutPreview{
		Partitions:   intents,
		Skipped:      skipped,
		PromoCode:    promoCode,
		PromoApplied: known,
	}
	if preview.Partitions == nil {
		preview.Partitions = []OrderIntent{}
	}
	if preview.Skipped == nil {
		preview.Skipped = []SkippedEntry{}
	}
	return preview, nil
}
