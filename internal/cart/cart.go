package cart

import (
	"time"

	"github.com/eshophub/storefront/internal/domain"
)

const (
	MinQuantity = 1
	MaxQuantity = 99
)

// LineItem is one product-and-quantity row. Everything except Quantity is
// a denormalized snapshot taken when the product was first added; it is
// never refreshed against the live catalog.
type LineItem struct {
	ProductID int64     `json:"id"`
	Title     string    `json:"title"`
	UnitPrice float64   `json:"price"`
	ImageURL  string    `json:"image"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

func newLineItem(p domain.Product, quantity int) LineItem {
	return LineItem{
		ProductID: p.ID,
		Title:     p.Title,
		UnitPrice: p.Price,
		ImageURL:  p.ImageURL,
		Category:  p.Category,
		Quantity:  clampQuantity(quantity),
		AddedAt:   time.Now(),
	}
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Pricing is the canonical policy. Shipping is free only when the subtotal
// is strictly greater than the threshold, so a subtotal of exactly 50.00
// still pays the flat fee.
type Pricing struct {
	TaxRate               float64
	FreeShippingThreshold float64
	FlatShippingFee       float64
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               0.10,
		FreeShippingThreshold: 50,
		FlatShippingFee:       10,
	}
}

func (p Pricing) Compute(items []LineItem) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}

	shipping := p.FlatShippingFee
	if subtotal > p.FreeShippingThreshold {
		shipping = 0
	}

	tax := subtotal * p.TaxRate

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}

func clampQuantity(quantity int) int {
	if quantity < MinQuantity {
		return MinQuantity
	}
	if quantity > MaxQuantity {
		return MaxQuantity
	}
	return quantity
}
