package handler

import (
	"errors"

	"github.com/eshophub/storefront/internal/auth"
	"github.com/eshophub/storefront/internal/catalog"
	"github.com/eshophub/storefront/internal/checkout"
	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
)

// statusFromError maps service errors onto HTTP status codes at the
// transport boundary, so handlers never invent codes inline.
func statusFromError(err error) int {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case auth.KindInvalidCredentials:
			return fiber.StatusUnauthorized
		case auth.KindEmailInUse:
			return fiber.StatusConflict
		case auth.KindWeakPassword, auth.KindInvalidEmail:
			return fiber.StatusBadRequest
		case auth.KindRateLimited:
			return fiber.StatusTooManyRequests
		case auth.KindNetwork:
			return fiber.StatusBadGateway
		default:
			return fiber.StatusInternalServerError
		}
	}

	var validationErr *checkout.ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest
	}

	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, catalog.ErrUpstream):
		return fiber.StatusBadGateway
	case errors.Is(err, checkout.ErrNotSignedIn):
		return fiber.StatusUnauthorized
	case errors.Is(err, checkout.ErrEmptyCart):
		return fiber.StatusBadRequest
	case errors.Is(err, auth.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusFromError(err)).JSON(fiber.Map{"error": err.Error()})
}
