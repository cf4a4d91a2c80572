package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eshophub/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

// cachedClient saves upstream round trips for product-by-id lookups.
// List and search results are not cached, they change with every query.
type cachedClient struct {
	next        Client
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedClient(next Client, redisClient *redis.Client) Client {
	return &cachedClient{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    time.Minute * 10,
	}
}

func (c *cachedClient) Product(ctx context.Context, id int64) (*domain.Product, error) {
	key := fmt.Sprintf("product:%d", id)

	val, err := c.redisClient.Get(ctx, key).Result()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal([]byte(val), &product); err == nil {
			product.Normalize()
			return &product, nil
		}
	}

	product, err := c.next.Product(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		c.redisClient.Set(ctx, key, data, c.cacheTTL)
	}

	return product, nil
}

func (c *cachedClient) Products(ctx context.Context, limit int) ([]domain.Product, error) {
	return c.next.Products(ctx, limit)
}

func (c *cachedClient) ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	return c.next.ProductsByCategory(ctx, slug)
}

func (c *cachedClient) Categories(ctx context.Context) ([]domain.Category, error) {
	return c.next.Categories(ctx)
}

func (c *cachedClient) Search(ctx context.Context, query string) ([]domain.Product, error) {
	return c.next.Search(ctx, query)
}
