package handlers

import (
	"fmt"

	"campusconnect/internal/middleware"
	"campusconnect/internal/models"
	"campusconnect/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	lifecycle *services.OrderLifecycle
	queries   *services.OrderQueryService
	actors    *services.ActorResolver
	logger    logrus.FieldLogger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(lifecycle *services.OrderLifecycle, queries *services.OrderQueryService, actors *services.ActorResolver, logger logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{
		lifecycle: lifecycle,
		queries:   queries,
		actors:    actors,
		logger:    logger,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/stats", h.HandleStats)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Get("/:id/items", h.HandleGetLineItems)
	orderRoutes.Get("/:id/history", h.HandleGetHistory)
	orderRoutes.Post("/:id/cancel", h.HandleCancel)
	orderRoutes.Post("/:id/advance", h.HandleAdvance)
}

type advanceRequest struct {
	TargetStatus   string `json:"target_status" validate:"required"`
	ExpectedStatus string `json:"expected_status"`
}

// actor resolves the caller from the role query parameter, customer by default.
func (h *OrderHandler) actor(c *fiber.Ctx) (services.Actor, error) {
	role := models.ActorRole(c.Query("role", string(models.ActorCustomer)))
	if !role.Valid() {
		return services.Actor{}, &services.ValidationError{
			Message: fmt.Sprintf("unknown role %q", role),
			Fields:  map[string]string{"role": "oneof=customer supplier"},
		}
	}
	return h.actors.Resolve(c.UserContext(), role, middleware.UserID(c))
}

// HandleListOrders lists the caller's orders as customer or supplier.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve orders", err)
	}

	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s, err := models.ParseOrderStatus(raw)
		if err != nil {
			return badRequest(c, "Invalid status filter", err)
		}
		status = &s
	}

	orders, err := h.queries.List(c.UserContext(), actor, status)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrder returns one order with its line items.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve order", err)
	}
	order, err := h.queries.Get(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return respondError(c, h.logger, fmt.Sprintf("Could not retrieve order %s", c.Params("id")), err)
	}
	return c.JSON(order)
}

// HandleGetLineItems returns the order's line items.
func (h *OrderHandler) HandleGetLineItems(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve line items", err)
	}
	items, err := h.queries.GetLineItems(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve line items", err)
	}
	return c.JSON(items)
}

// HandleGetHistory returns the order's status transitions.
func (h *OrderHandler) HandleGetHistory(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve order history", err)
	}
	history, err := h.queries.History(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve order history", err)
	}
	return c.JSON(history)
}

// HandleStats returns aggregates for the caller's supplier.
func (h *OrderHandler) HandleStats(c *fiber.Ctx) error {
	actor, err := h.actors.Supplier(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve order stats", err)
	}
	stats, err := h.queries.AggregateStats(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve order stats", err)
	}
	return c.JSON(stats)
}

// HandleCancel cancels a pending order on behalf of its customer.
func (h *OrderHandler) HandleCancel(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.lifecycle.Cancel(c.UserContext(), orderID, h.actors.Customer(middleware.UserID(c)))
	if err != nil {
		return respondError(c, h.logger, fmt.Sprintf("Could not cancel order %s", orderID), err)
	}
	return c.JSON(order)
}

// HandleAdvance moves an order one step forward on behalf of its supplier.
func (h *OrderHandler) HandleAdvance(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var req advanceRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	actor, err := h.actors.Supplier(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, fmt.Sprintf("Could not advance order %s", orderID), err)
	}

	var expected *models.OrderStatus
	if req.ExpectedStatus != "" {
		s := models.OrderStatus(req.ExpectedStatus)
		expected = &s
	}
	order, err := h.lifecycle.Advance(c.UserContext(), orderID, models.OrderStatus(req.TargetStatus), expected, actor)
	if err != nil {
		return respondError(c, h.logger, fmt.Sprintf("Could not advance order %s", orderID), err)
	}
	return c.JSON(order)
}
