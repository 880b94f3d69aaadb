package handlers

import (
	"errors"

	"campusconnect/internal/services"
	"campusconnect/pkg/redislock"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors to HTTP responses.
func respondError(c *fiber.Ctx, logger logrus.FieldLogger, message string, err error) error {
	var (
		verr *services.ValidationError
		terr *services.TransitionError
	)

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   verr.Message,
			"fields":  verr.Fields,
		})
	case errors.Is(err, services.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.As(err, &terr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":        message,
			"error":          terr.Error(),
			"current_status": terr.Current,
		})
	case errors.Is(err, redislock.ErrNotAcquired):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Another checkout is in progress for this cart",
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	default:
		logger.WithError(err).Error(message)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
