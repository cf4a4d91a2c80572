package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/eshophub/storefront/internal/catalog"
	"github.com/eshophub/storefront/pkg/mylogger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultProductLimit = 100

type ProductHandler struct {
	catalog catalog.Client
	logger  *zap.Logger
}

func NewProductHandler(catalogClient catalog.Client, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalogClient,
		logger:  logger,
	}
}

// List serves the product grid. `category` and `q` are mutually exclusive
// filters; `q` wins when both are given, matching the search box behavior.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	query := c.Query("q")
	category := c.Query("category")
	limit := c.QueryInt("limit", defaultProductLimit)

	var (
		products interface{}
		err      error
	)
	switch {
	case query != "":
		products, err = h.catalog.Search(ctx, query)
	case category != "":
		products, err = h.catalog.ProductsByCategory(ctx, category)
	default:
		products, err = h.catalog.Products(ctx, limit)
	}

	if err != nil {
		mylogger.Warn(ctx, h.logger, "product list failed",
			zap.String("q", query),
			zap.String("category", category),
			zap.Error(err),
		)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"products": products})
}

func (h *ProductHandler) FindByID(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	product, err := h.catalog.Product(ctx, id)
	if err != nil {
		mylogger.Warn(ctx, h.logger, "product lookup failed",
			zap.Int64("product_id", id),
			zap.Error(err),
		)
		return errorResponse(c, err)
	}

	return c.JSON(product)
}

func (h *ProductHandler) ListCategories(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		mylogger.Warn(ctx, h.logger, "category list failed", zap.Error(err))
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"categories": categories})
}
