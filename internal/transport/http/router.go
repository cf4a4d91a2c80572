package http

import (
	"github.com/eshophub/storefront/internal/transport/http/handler"
	"github.com/eshophub/storefront/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Wishlist *handler.WishlistHandler
	Checkout *handler.CheckoutHandler
}

// RegisterRoutes wires the public catalog and auth endpoints plus the
// authenticated /api group for cart, wishlist and checkout.
func RegisterRoutes(app *fiber.App, h *Handlers, sessions middleware.SessionSource) {
	authGroup := app.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/logout", h.Auth.Logout)

	app.Get("/products", h.Product.List)
	app.Get("/products/:id", h.Product.FindByID)
	app.Get("/categories", h.Product.ListCategories)

	api := app.Group("/api", middleware.NewAuthMiddleware(sessions))
	api.Get("/me", h.Auth.GetMe)

	cartGroup := api.Group("/cart")
	cartGroup.Get("", h.Cart.Get)
	cartGroup.Post("", h.Cart.AddItem)
	cartGroup.Put("/:id", h.Cart.SetQuantity)
	cartGroup.Delete("/:id", h.Cart.RemoveItem)
	cartGroup.Delete("", h.Cart.Clear)

	wishlistGroup := api.Group("/wishlist")
	wishlistGroup.Get("", h.Wishlist.List)
	wishlistGroup.Post("/:id", h.Wishlist.Toggle)

	api.Post("/checkout", h.Checkout.Commit)
	api.Get("/orders", h.Checkout.ListOrders)
	api.Get("/orders/current", h.Checkout.CurrentOrder)
}
