package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eshophub/storefront/internal/auth"
	"github.com/eshophub/storefront/internal/cart"
	"github.com/eshophub/storefront/internal/kvstore"
	"github.com/eshophub/storefront/internal/notify"
	"github.com/eshophub/storefront/pkg/mylogger"
	"github.com/eshophub/storefront/pkg/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrNotSignedIn = errors.New("sign in to complete checkout")
	ErrEmptyCart   = errors.New("cart is empty")
)

// ValidationError wraps field-level input problems so transports can map
// them to a 400 instead of a 500.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}

	parts := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		parts = append(parts, msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// SessionSource tells the service who is signed in. Satisfied by
// *auth.Client.
type SessionSource interface {
	CurrentUser() *auth.User
}

// Service commits checkouts: it turns the current cart into an order,
// appends it to the order history and clears the cart. The cart is cleared
// only after the order is durably written, so a storage failure never
// loses the customer's items.
type Service interface {
	Commit(ctx context.Context, shipping ShippingInfo, payment Payment) (*Order, error)
	Orders(ctx context.Context) ([]Order, error)
	CurrentOrder(ctx context.Context) (*Order, error)
}

type checkoutService struct {
	cart     *cart.Store
	kv       kvstore.Store
	sessions SessionSource
	validate *validator.Validate
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewService(cartStore *cart.Store, kv kvstore.Store, sessions SessionSource, notifier notify.Notifier, logger *zap.Logger) Service {
	return &checkoutService{
		cart:     cartStore,
		kv:       kv,
		sessions: sessions,
		validate: validator.New(),
		notifier: notifier,
		logger:   logger,
	}
}

func (s *checkoutService) Commit(ctx context.Context, shipping ShippingInfo, payment Payment) (*Order, error) {
	user := s.sessions.CurrentUser()
	if user == nil {
		s.notifier.Notify("Please login to checkout", notify.LevelWarning)
		return nil, ErrNotSignedIn
	}

	if s.cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if err := s.validate.Struct(shipping); err != nil {
		return nil, &ValidationError{Fields: utils.FormatValidationError(err)}
	}
	if err := s.validate.Struct(payment); err != nil {
		return nil, &ValidationError{Fields: utils.FormatValidationError(err)}
	}
	if err := payment.ValidateCard(time.Now()); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"payment": err.Error()}}
	}

	order := newOrder(s.cart.Items(), s.cart.Totals(), shipping, payment.Method, time.Now())

	history := s.loadOrders(ctx)
	history = append(history, *order)

	if err := s.writeOrders(ctx, history); err != nil {
		mylogger.Error(ctx, s.logger, "failed to persist order, cart kept intact",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		s.notifier.Notify("Error processing order. Please try again.", notify.LevelError)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if raw, err := json.Marshal(order); err == nil {
		if err := s.kv.Set(ctx, kvstore.KeyCurrentOrder, raw); err != nil {
			// The order is already in the history; losing the confirmation
			// pointer only degrades the confirmation page.
			mylogger.Warn(ctx, s.logger, "failed to store current order pointer", zap.Error(err))
		}
	}

	s.cart.Clear(ctx)
	s.notifier.Notify("Order placed successfully!", notify.LevelSuccess)

	mylogger.Info(ctx, s.logger, "order committed",
		zap.String("order_number", order.OrderNumber),
		zap.String("uid", user.UID),
		zap.Int("items", len(order.Items)),
		zap.Float64("total", order.Total),
	)

	return order, nil
}

func (s *checkoutService) Orders(ctx context.Context) ([]Order, error) {
	if s.sessions.CurrentUser() == nil {
		return nil, ErrNotSignedIn
	}
	return s.loadOrders(ctx), nil
}

// CurrentOrder returns the most recently committed order for the
// confirmation view, nil when none exists.
func (s *checkoutService) CurrentOrder(ctx context.Context) (*Order, error) {
	if s.sessions.CurrentUser() == nil {
		return nil, ErrNotSignedIn
	}

	raw, err := s.kv.Get(ctx, kvstore.KeyCurrentOrder)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read current order: %w", err)
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		mylogger.Warn(ctx, s.logger, "stored current order is corrupt", zap.Error(err))
		return nil, nil
	}
	return &order, nil
}

// loadOrders restores the order history; a missing key or corrupt value
// yields an empty history, matching the cart's recovery contract.
func (s *checkoutService) loadOrders(ctx context.Context) []Order {
	raw, err := s.kv.Get(ctx, kvstore.KeyOrders)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			mylogger.Warn(ctx, s.logger, "failed to read order history", zap.Error(err))
		}
		return nil
	}

	var orders []Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		mylogger.Warn(ctx, s.logger, "order history is corrupt, resetting", zap.Error(err))
		return nil
	}
	return orders
}

func (s *checkoutService) writeOrders(ctx context.Context, orders []Order) error {
	raw, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal order history: %w", err)
	}
	return s.kv.Set(ctx, kvstore.KeyOrders, raw)
}
