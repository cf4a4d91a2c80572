package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/eshophub/storefront/internal/catalog"
	"github.com/eshophub/storefront/internal/wishlist"
	"github.com/eshophub/storefront/pkg/mylogger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WishlistHandler struct {
	wishlist *wishlist.Store
	catalog  catalog.Client
	logger   *zap.Logger
}

func NewWishlistHandler(wishlistStore *wishlist.Store, catalogClient catalog.Client, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{
		wishlist: wishlistStore,
		catalog:  catalogClient,
		logger:   logger,
	}
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"entries": h.wishlist.Entries(),
		"count":   h.wishlist.Count(),
	})
}

// Toggle flips the product's wishlist membership and reports the result,
// so the client can render the heart without a follow-up read.
func (h *WishlistHandler) Toggle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	productID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || productID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid product id",
		})
	}

	product, err := h.catalog.Product(ctx, productID)
	if err != nil {
		mylogger.Warn(ctx, h.logger, "wishlist toggle: product lookup failed",
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return errorResponse(c, err)
	}

	added := h.wishlist.Toggle(ctx, *product)

	return c.JSON(fiber.Map{
		"inWishlist": added,
		"count":      h.wishlist.Count(),
	})
}
