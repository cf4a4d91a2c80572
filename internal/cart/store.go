package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/eshophub/storefront/internal/domain"
	"github.com/eshophub/storefront/internal/kvstore"
	"github.com/eshophub/storefront/internal/notify"
	"github.com/eshophub/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

// Store holds the session's cart. Mutations are serialized by a mutex and
// persisted to the KV store before returning, so a later load sees exactly
// what the last successful mutation left behind. All mutations fail soft:
// a false result and an unchanged cart, never a panic.
type Store struct {
	mu       sync.Mutex
	items    []LineItem
	kv       kvstore.Store
	pricing  Pricing
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewStore(ctx context.Context, kv kvstore.Store, pricing Pricing, notifier notify.Notifier, logger *zap.Logger) *Store {
	s := &Store{
		kv:       kv,
		pricing:  pricing,
		notifier: notifier,
		logger:   logger,
	}
	s.items = s.load(ctx)
	return s
}

// load restores the persisted cart. A missing key or corrupt value yields
// an empty cart; corruption is logged, never surfaced.
func (s *Store) load(ctx context.Context) []LineItem {
	raw, err := s.kv.Get(ctx, kvstore.KeyCart)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			mylogger.Warn(ctx, s.logger, "failed to read stored cart", zap.Error(err))
		}
		return nil
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		mylogger.Warn(ctx, s.logger, "stored cart is corrupt, resetting", zap.Error(err))
		return nil
	}

	return items
}

// AddItem merges the product into the cart by id: an existing line gains
// quantity (clamped to MaxQuantity, excess silently dropped), a new line
// is appended. Returns false only when the product has no identifier.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) bool {
	if product.ID == 0 {
		mylogger.Warn(ctx, s.logger, "add to cart rejected: product has no id")
		s.notifier.Notify("Invalid product", notify.LevelError)
		return false
	}

	if quantity < MinQuantity {
		quantity = MinQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.items {
		if s.items[i].ProductID == product.ID {
			s.items[i].Quantity = clampQuantity(s.items[i].Quantity + quantity)
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, newLineItem(product, quantity))
	}

	s.persist(ctx)
	s.notifier.Notify(fmt.Sprintf("%s added to cart!", product.Title), notify.LevelSuccess)

	mylogger.Info(ctx, s.logger, "item added to cart",
		zap.Int64("product_id", product.ID),
		zap.Int("quantity", quantity),
		zap.Bool("merged", merged),
	)

	return true
}

// RemoveItem drops the line with the given id. No-op false when absent.
func (s *Store) RemoveItem(ctx context.Context, productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist(ctx)
			s.notifier.Notify("Item removed from cart", notify.LevelInfo)

			mylogger.Info(ctx, s.logger, "item removed from cart",
				zap.Int64("product_id", productID),
			)
			return true
		}
	}

	return false
}

// SetQuantity clamps into [MinQuantity, MaxQuantity]. Quantity edits are
// low-friction, so no notification is raised.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = clampQuantity(quantity)
			s.persist(ctx)
			return true
		}
	}

	return false
}

// Clear empties the cart unconditionally. Used after a checkout commit and
// as the privacy reset on logout.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist(ctx)
}

// Totals is pure over the current line items.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pricing.Compute(s.items)
}

// TotalItemCount is the badge count: the sum of quantities, not the number
// of distinct products.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items) == 0
}

// persist writes the full cart under its well-known key. A storage failure
// keeps the in-memory state and tells the user; the next successful
// mutation writes everything again anyway.
func (s *Store) persist(ctx context.Context) {
	raw, err := json.Marshal(s.items)
	if err != nil {
		mylogger.Error(ctx, s.logger, "failed to marshal cart", zap.Error(err))
		s.notifier.Notify("Error saving cart", notify.LevelError)
		return
	}

	if err := s.kv.Set(ctx, kvstore.KeyCart, raw); err != nil {
		mylogger.Error(ctx, s.logger, "failed to persist cart", zap.Error(err))
		s.notifier.Notify("Error saving cart", notify.LevelError)
	}
}
