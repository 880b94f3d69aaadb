package handlers

import (
	"campusconnect/internal/middleware"
	"campusconnect/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// CheckoutHandler handles HTTP requests for checkout.
type CheckoutHandler struct {
	coordinator *services.CheckoutCoordinator
	logger      logrus.FieldLogger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(coordinator *services.CheckoutCoordinator, logger logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// RegisterRoutes registers the checkout routes.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/", h.HandleCheckout)
	checkoutRoutes.Get("/preview", h.HandlePreview)
}

type checkoutRequest struct {
	DeliveryAddress string `json:"delivery_address" validate:"required"`
	DeliveryPhone   string `json:"delivery_phone" validate:"required"`
	Notes           string `json:"notes" validate:"max=500"`
	PromoCode       string `json:"promo_code"`
}

// HandleCheckout turns the cart into one order per supplier. It answers 201
// when at least one order was created, 200 when the cart only held entries
// that were already ordered, and 422 otherwise.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	result, err := h.coordinator.Checkout(c.UserContext(), middleware.UserID(c), services.DeliveryInfo{
		Address:   req.DeliveryAddress,
		Phone:     req.DeliveryPhone,
		Notes:     req.Notes,
		PromoCode: req.PromoCode,
	})
	if err != nil {
		return respondError(c, h.logger, "Checkout failed", err)
	}

	status := fiber.StatusCreated
	switch {
	case len(result.Created) > 0:
	case len(result.Failed) == 0 && len(result.Reconciled) > 0:
		status = fiber.StatusOK
	default:
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(result)
}

// HandlePreview prices the cart per supplier without writing anything.
func (h *CheckoutHandler) HandlePreview(c *fiber.Ctx) error {
	preview, err := h.coordinator.Preview(c.UserContext(), middleware.UserID(c), c.Query("promo_code"))
	if err != nil {
		return respondError(c, h.logger, "Could not preview checkout", err)
	}
	return c.JSON(preview)
}
