package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/igscheduler/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := c.Locals("user_id").(int64)
	return userID
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrAccountNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrAlreadyPublished), errors.Is(err, service.ErrPublishInProgress),
		errors.Is(err, service.ErrClaimLost):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrRateLimitExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, service.ErrTransport),
		errors.Is(err, service.ErrMediaProcessingFailed),
		errors.Is(err, service.ErrMediaProcessingTimeout):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// sendError writes err as {"error": msg}. Internal errors are not exposed.
func sendError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		slog.Error(msg, "path", c.Path())
		msg = "something went wrong"
	} else if status == fiber.StatusBadGateway {
		msg = service.FailureMessage(err)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
