package cart

import (
	"context"
	"testing"

	"github.com/eshophub/storefront/internal/domain"
	"github.com/eshophub/storefront/internal/kvstore"
	"github.com/eshophub/storefront/internal/notify"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *kvstore.MemoryStore, *notify.Recorder) {
	t.Helper()

	kv := kvstore.NewMemoryStore()
	recorder := notify.NewRecorder()
	store := NewStore(context.Background(), kv, DefaultPricing(), recorder, zap.NewNop())
	return store, kv, recorder
}

func headphones() domain.Product {
	return domain.Product{
		ID:       7,
		Title:    "Wireless Headphones",
		Price:    199.99,
		Category: "electronics",
		ImageURL: "https://cdn.example.com/headphones.jpg",
	}
}

func TestAddItem_MergesByID(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddItem(ctx, headphones(), 2))
	require.True(t, store.AddItem(ctx, headphones(), 3))

	items := store.Items()
	require.Len(t, items, 1, "same product must merge into one line")
	require.Equal(t, 5, items[0].Quantity)
	require.Equal(t, 5, store.TotalItemCount())
}

func TestAddItem_ClampsMergedQuantity(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddItem(ctx, headphones(), 98))
	require.True(t, store.AddItem(ctx, headphones(), 500))

	items := store.Items()
	require.Len(t, items, 1)
	require.Equal(t, MaxQuantity, items[0].Quantity, "excess is dropped silently")
}

func TestAddItem_RejectsProductWithoutID(t *testing.T) {
	store, _, recorder := newTestStore(t)

	ok := store.AddItem(context.Background(), domain.Product{Title: "ghost"}, 1)

	require.False(t, ok)
	require.True(t, store.IsEmpty())

	last, found := recorder.Last()
	require.True(t, found)
	require.Equal(t, "Invalid product", last.Message)
	require.Equal(t, notify.LevelError, last.Level)
}

func TestAddItem_ZeroQuantityBecomesOne(t *testing.T) {
	store, _, _ := newTestStore(t)

	require.True(t, store.AddItem(context.Background(), headphones(), 0))
	require.Equal(t, 1, store.Items()[0].Quantity)
}

func TestAddItem_NotifiesWithTitle(t *testing.T) {
	store, _, recorder := newTestStore(t)

	store.AddItem(context.Background(), headphones(), 1)

	last, found := recorder.Last()
	require.True(t, found)
	require.Equal(t, "Wireless Headphones added to cart!", last.Message)
	require.Equal(t, notify.LevelSuccess, last.Level)
}

func TestSetQuantity_Clamps(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	store.AddItem(ctx, headphones(), 5)

	require.True(t, store.SetQuantity(ctx, 7, 0))
	require.Equal(t, MinQuantity, store.Items()[0].Quantity)

	require.True(t, store.SetQuantity(ctx, 7, 500))
	require.Equal(t, MaxQuantity, store.Items()[0].Quantity)
}

func TestSetQuantity_UnknownProduct(t *testing.T) {
	store, _, _ := newTestStore(t)

	require.False(t, store.SetQuantity(context.Background(), 42, 3))
}

func TestRemoveItem(t *testing.T) {
	store, _, recorder := newTestStore(t)
	ctx := context.Background()

	store.AddItem(ctx, headphones(), 2)

	require.True(t, store.RemoveItem(ctx, 7))
	require.True(t, store.IsEmpty())

	last, _ := recorder.Last()
	require.Equal(t, "Item removed from cart", last.Message)

	require.False(t, store.RemoveItem(ctx, 7), "second remove is a no-op")
}

func TestClear(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	store.AddItem(ctx, headphones(), 2)
	store.Clear(ctx)

	require.True(t, store.IsEmpty())
	require.Zero(t, store.TotalItemCount())

	reloaded := NewStore(ctx, kv, DefaultPricing(), notify.NewRecorder(), zap.NewNop())
	require.True(t, reloaded.IsEmpty(), "clear must persist")
}

func TestPersistenceRoundTrip(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	store.AddItem(ctx, headphones(), 3)

	reloaded := NewStore(ctx, kv, DefaultPricing(), notify.NewRecorder(), zap.NewNop())

	items := reloaded.Items()
	require.Len(t, items, 1)
	require.Equal(t, int64(7), items[0].ProductID)
	require.Equal(t, 3, items[0].Quantity)
	require.InDelta(t, 199.99, items[0].UnitPrice, 1e-9)
}

func TestCorruptStateStartsEmpty(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, kvstore.KeyCart, []byte("{not json")))

	store := NewStore(ctx, kv, DefaultPricing(), notify.NewRecorder(), zap.NewNop())

	require.True(t, store.IsEmpty())
	require.True(t, store.AddItem(ctx, headphones(), 1), "store stays usable after recovery")
}

func TestTotals_MatchPricing(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	store.AddItem(ctx, headphones(), 1)

	totals := store.Totals()
	require.InDelta(t, 199.99, totals.Subtotal, 1e-9)
	require.InDelta(t, 0.0, totals.Shipping, 1e-9)
	require.InDelta(t, 19.999, totals.Tax, 1e-9)
	require.InDelta(t, 219.989, totals.Total, 1e-9)
}
