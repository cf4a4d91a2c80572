package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/eshophub/storefront/internal/cart"
	"github.com/eshophub/storefront/internal/catalog"
	"github.com/eshophub/storefront/pkg/mylogger"
	"github.com/eshophub/storefront/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CartHandler exposes the cart over HTTP. Adds go through the catalog so a
// line item always snapshots real product data, never client-supplied
// prices.
type CartHandler struct {
	cart     *cart.Store
	catalog  catalog.Client
	validate *validator.Validate
	logger   *zap.Logger
}

type AddItemInput struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,min=1,max=99"`
}

type SetQuantityInput struct {
	Quantity int `json:"quantity" validate:"required"`
}

func NewCartHandler(cartStore *cart.Store, catalogClient catalog.Client, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:     cartStore,
		catalog:  catalogClient,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"items":  h.cart.Items(),
		"totals": h.cart.Totals(),
		"count":  h.cart.TotalItemCount(),
	})
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	input := new(AddItemInput)

	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(ctx, h.logger, "failed to parse body in add item", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	product, err := h.catalog.Product(ctx, input.ProductID)
	if err != nil {
		mylogger.Warn(ctx, h.logger, "add to cart: product lookup failed",
			zap.Int64("product_id", input.ProductID),
			zap.Error(err),
		)
		return errorResponse(c, err)
	}

	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}

	if !h.cart.AddItem(ctx, *product, quantity) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"items": h.cart.Items(),
		"count": h.cart.TotalItemCount(),
	})
}

func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	productID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || productID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	input := new(SetQuantityInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if !h.cart.SetQuantity(ctx, productID, input.Quantity) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Item not in cart",
		})
	}

	return c.JSON(fiber.Map{
		"items":  h.cart.Items(),
		"totals": h.cart.Totals(),
	})
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	productID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || productID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	if !h.cart.RemoveItem(ctx, productID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Item not in cart",
		})
	}

	return c.JSON(fiber.Map{
		"items":  h.cart.Items(),
		"totals": h.cart.Totals(),
	})
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	h.cart.Clear(ctx)

	return c.JSON(fiber.Map{"items": []cart.LineItem{}, "count": 0})
}
