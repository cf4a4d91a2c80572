package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/eshophub/storefront/internal/auth"
	"github.com/eshophub/storefront/internal/cart"
	"github.com/eshophub/storefront/internal/catalog"
	"github.com/eshophub/storefront/internal/checkout"
	"github.com/eshophub/storefront/internal/kvstore"
	"github.com/eshophub/storefront/internal/notify"
	"github.com/eshophub/storefront/internal/transport/http"
	"github.com/eshophub/storefront/internal/transport/http/handler"
	"github.com/eshophub/storefront/internal/wishlist"
	"github.com/eshophub/storefront/pkg/config"
	"github.com/eshophub/storefront/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "storefront")
	if err != nil {
		log.Fatalf("Failed to init trace: %v", err)
	}

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	kv, redisClient := newKVStore(cfg, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing redis connection: %v\n", err)
			}
		}()
	}

	var catalogClient catalog.Client = catalog.NewHTTPClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, logger)
	if redisClient != nil {
		catalogClient = catalog.NewCachedClient(catalogClient, redisClient)
	}

	notifier := notify.NewLogNotifier(logger)

	cartStore := cart.NewStore(ctx, kv, cart.Pricing{
		TaxRate:               cfg.Pricing.TaxRate,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		FlatShippingFee:       cfg.Pricing.FlatShippingFee,
	}, notifier, logger)
	wishlistStore := wishlist.NewStore(ctx, kv, notifier, logger)

	authClient := auth.NewClient(cfg.Auth.BaseURL, cfg.Auth.APIKey, cfg.Auth.Timeout, kv, logger)

	initCtx, cancelInit := context.WithTimeout(ctx, cfg.Auth.Timeout)
	if err := authClient.Init(initCtx); err != nil {
		logger.Warn("auth unavailable, authenticated features disabled", zap.Error(err))
	}
	cancelInit()

	// Signing out wipes the session's cart and wishlist. Only the
	// transition counts: a visitor who was never signed in keeps their cart.
	signedIn := authClient.CurrentUser() != nil
	authClient.OnAuthStateChanged(func(user *auth.User) {
		if user == nil && signedIn {
			cartStore.Clear(ctx)
			wishlistStore.Clear(ctx)
		}
		signedIn = user != nil
	})

	checkoutService := checkout.NewService(cartStore, kv, authClient, notifier, logger)

	app := fiber.New(fiber.Config{
		ReadTimeout: cfg.HTTP.Timeout,
	})

	app.Use(otelfiber.Middleware())

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Limiter.Max,
		Expiration: cfg.Limiter.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		},
	}))

	logger.Info("Storefront service started!")

	handlers := &http.Handlers{
		Auth:     handler.NewAuthHandler(authClient, logger),
		Product:  handler.NewProductHandler(catalogClient, logger),
		Cart:     handler.NewCartHandler(cartStore, catalogClient, logger),
		Wishlist: handler.NewWishlistHandler(wishlistStore, catalogClient, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger),
	}

	http.RegisterRoutes(app, handlers, authClient)

	go func() {
		log.Println("HTTP Service listening on: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownContext); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	} else {
		log.Println("HTTP App stopped gracefully")
	}

	if err := tp.Shutdown(shutdownContext); err != nil {
		log.Printf("Error shutting down telemetry: %v\n", err)
	} else {
		log.Println("Telemetry stopped correctly")
	}
}

// newKVStore selects the persistence backend. The redis client is returned
// so the catalog cache can share the connection.
func newKVStore(cfg *config.Config, logger *zap.Logger) (kvstore.Store, *redis.Client) {
	switch cfg.Storage.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		return kvstore.NewRedisStore(client, "storefront:"), client
	case "memory":
		return kvstore.NewMemoryStore(), nil
	default:
		store, err := kvstore.NewFileStore(cfg.Storage.Path, logger)
		if err != nil {
			log.Fatalf("Error opening storage file: %v", err)
		}
		return store, nil
	}
}
