package handler

import (
	"context"
	"time"

	"github.com/eshophub/storefront/internal/checkout"
	"github.com/eshophub/storefront/pkg/mylogger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkout checkout.Service
	logger   *zap.Logger
}

type CheckoutInput struct {
	Shipping checkout.ShippingInfo `json:"shipping"`
	Payment  checkout.Payment      `json:"payment"`
}

func NewCheckoutHandler(checkoutService checkout.Service, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkoutService,
		logger:   logger,
	}
}

func (h *CheckoutHandler) Commit(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	input := new(CheckoutInput)

	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(ctx, h.logger, "failed to parse body in checkout", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	order, err := h.checkout.Commit(ctx, input.Shipping, input.Payment)
	if err != nil {
		mylogger.Warn(ctx, h.logger, "checkout failed", zap.Error(err))
		return errorResponse(c, err)
	}

	mylogger.Info(ctx, h.logger, "checkout succeeded",
		zap.String("order_number", order.OrderNumber),
	)

	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *CheckoutHandler) ListOrders(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	orders, err := h.checkout.Orders(ctx)
	if err != nil {
		return errorResponse(c, err)
	}

	if orders == nil {
		orders = []checkout.Order{}
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *CheckoutHandler) CurrentOrder(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	order, err := h.checkout.CurrentOrder(ctx)
	if err != nil {
		return errorResponse(c, err)
	}
	if order == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No recent order",
		})
	}

	return c.JSON(order)
}
