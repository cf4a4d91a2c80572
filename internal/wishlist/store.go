package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/eshophub/storefront/internal/domain"
	"github.com/eshophub/storefront/internal/kvstore"
	"github.com/eshophub/storefront/internal/notify"
	"github.com/eshophub/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

// Entry is the cart line's quantity-less sibling: the same denormalized
// product snapshot, unique by product id.
type Entry struct {
	ProductID int64     `json:"id"`
	Title     string    `json:"title"`
	UnitPrice float64   `json:"price"`
	ImageURL  string    `json:"image"`
	Category  string    `json:"category"`
	AddedAt   time.Time `json:"addedAt"`
}

// Store holds the session's wishlist. Membership is toggled rather than
// quantity-adjusted; persistence follows the cart's contract.
type Store struct {
	mu       sync.Mutex
	entries  []Entry
	kv       kvstore.Store
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewStore(ctx context.Context, kv kvstore.Store, notifier notify.Notifier, logger *zap.Logger) *Store {
	s := &Store{
		kv:       kv,
		notifier: notifier,
		logger:   logger,
	}
	s.entries = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []Entry {
	raw, err := s.kv.Get(ctx, kvstore.KeyWishlist)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			mylogger.Warn(ctx, s.logger, "failed to read stored wishlist", zap.Error(err))
		}
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		mylogger.Warn(ctx, s.logger, "stored wishlist is corrupt, resetting", zap.Error(err))
		return nil
	}

	return entries
}

// Toggle adds the product when absent and removes it when present,
// returning the resulting membership.
func (s *Store) Toggle(ctx context.Context, product domain.Product) bool {
	if product.ID == 0 {
		mylogger.Warn(ctx, s.logger, "wishlist toggle rejected: product has no id")
		s.notifier.Notify("Invalid product", notify.LevelError)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.entries {
		if entry.ProductID == product.ID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.persist(ctx)
			s.notifier.Notify("Removed from wishlist", notify.LevelInfo)
			return false
		}
	}

	s.entries = append(s.entries, Entry{
		ProductID: product.ID,
		Title:     product.Title,
		UnitPrice: product.Price,
		ImageURL:  product.ImageURL,
		Category:  product.Category,
		AddedAt:   time.Now(),
	})
	s.persist(ctx)
	s.notifier.Notify("Added to wishlist!", notify.LevelSuccess)
	return true
}

func (s *Store) Contains(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.ProductID == productID {
			return true
		}
	}
	return false
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear is the logout privacy reset.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) {
	raw, err := json.Marshal(s.entries)
	if err != nil {
		mylogger.Error(ctx, s.logger, "failed to marshal wishlist", zap.Error(err))
		s.notifier.Notify("Error saving wishlist", notify.LevelError)
		return
	}

	if err := s.kv.Set(ctx, kvstore.KeyWishlist, raw); err != nil {
		mylogger.Error(ctx, s.logger, "failed to persist wishlist", zap.Error(err))
		s.notifier.Notify("Error saving wishlist", notify.LevelError)
	}
}
