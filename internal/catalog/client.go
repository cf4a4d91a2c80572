package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/eshophub/storefront/internal/domain"
	"github.com/eshophub/storefront/pkg/utils"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUpstream        = errors.New("catalog request failed")
)

// Client reads the external product API. Results are normalized once at
// ingestion; nothing is cached here, denormalized snapshots are the
// cart's business.
type Client interface {
	Products(ctx context.Context, limit int) ([]domain.Product, error)
	ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) Client {
	settings := gobreaker.Settings{
		Name:        "CatalogAPI",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &httpClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cb:      gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

type productList struct {
	Products []domain.Product `json:"products"`
}

func (c *httpClient) Products(ctx context.Context, limit int) ([]domain.Product, error) {
	var list productList
	path := "/products?limit=" + strconv.Itoa(limit)
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, err
	}

	return normalizeAll(list.Products), nil
}

func (c *httpClient) ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	var list productList
	path := "/products/category/" + url.PathEscape(slug)
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, err
	}

	return normalizeAll(list.Products), nil
}

func (c *httpClient) Product(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	path := "/products/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, path, &product); err != nil {
		return nil, err
	}

	product.Normalize()
	return &product, nil
}

func (c *httpClient) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.getJSON(ctx, "/products/categories", &categories); err != nil {
		return nil, err
	}

	return categories, nil
}

func (c *httpClient) Search(ctx context.Context, query string) ([]domain.Product, error) {
	var list productList
	path := "/products/search?q=" + url.QueryEscape(query)
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, err
	}

	return normalizeAll(list.Products), nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, target any) error {
	_, err := utils.ExecuteWithBreaker[struct{}](c.cb, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to build catalog request: %w", err)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("catalog request failed: %w", err)
		}
		defer res.Body.Close()

		switch {
		case res.StatusCode == http.StatusNotFound:
			return struct{}{}, ErrProductNotFound
		case res.StatusCode >= 400:
			return struct{}{}, fmt.Errorf("%w: status %d", ErrUpstream, res.StatusCode)
		}

		if err := json.NewDecoder(res.Body).Decode(target); err != nil {
			return struct{}{}, fmt.Errorf("failed to decode catalog response: %w", err)
		}

		return struct{}{}, nil
	})

	if err != nil {
		c.logger.Warn("catalog call failed",
			zap.String("path", path),
			zap.Error(err),
		)
	}

	return err
}

func normalizeAll(products []domain.Product) []domain.Product {
	for i := range products {
		products[i].Normalize()
	}
	return products
}
