package handlers

import (
	"campusconnect/internal/middleware"
	"campusconnect/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// CartHandler handles HTTP requests for the customer's cart.
type CartHandler struct {
	cart       *services.CartService
	reconciler *services.Reconciler
	logger     logrus.FieldLogger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cart *services.CartService, reconciler *services.Reconciler, logger logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		cart:       cart,
		reconciler: reconciler,
		logger:     logger,
	}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:product_id", h.HandleSetQuantity)
	cartRoutes.Delete("/items/:product_id", h.HandleRemoveItem)
	cartRoutes.Post("/reconcile", h.HandleReconcile)
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// HandleGetCart lists the cart with current product data.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	entries, err := h.cart.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve cart", err)
	}
	return c.JSON(fiber.Map{"items": entries})
}

// HandleAddItem adds a product to the cart, incrementing an existing entry.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req addItemRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	entry, err := h.cart.Add(c.UserContext(), middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, h.logger, "Could not add item to cart", err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// HandleSetQuantity overwrites a cart entry's quantity. Zero removes it.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	var req setQuantityRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if err := h.cart.SetQuantity(c.UserContext(), middleware.UserID(c), c.Params("product_id"), *req.Quantity); err != nil {
		return respondError(c, h.logger, "Could not update cart item", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRemoveItem removes a product from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.cart.Remove(c.UserContext(), middleware.UserID(c), c.Params("product_id")); err != nil {
		return respondError(c, h.logger, "Could not remove cart item", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.cart.Clear(c.UserContext(), middleware.UserID(c)); err != nil {
		return respondError(c, h.logger, "Could not clear cart", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleReconcile removes cart entries that were already ordered.
func (h *CartHandler) HandleReconcile(c *fiber.Ctx) error {
	removed, err := h.reconciler.ReconcileCustomer(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, "Could not reconcile cart", err)
	}
	if removed == nil {
		return c.JSON(fiber.Map{"removed": []interface{}{}})
	}
	return c.JSON(fiber.Map{"removed": removed})
}
