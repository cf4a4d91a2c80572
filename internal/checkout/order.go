package checkout

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/eshophub/storefront/internal/cart"
	"github.com/google/uuid"
)

// OrderStatus tracks an order through its lifecycle. Orders start in
// processing; later transitions are out of scope for the storefront.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
)

// PaymentMethod selects how the order is paid.
type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "credit-card"
	PaymentPayPal         PaymentMethod = "paypal"
	PaymentCashOnDelivery PaymentMethod = "cash-on-delivery"
)

// ShippingInfo is the delivery address collected at checkout.
type ShippingInfo struct {
	FullName string `json:"fullName" validate:"required,min=2"`
	Email    string `json:"email"    validate:"required,email"`
	Phone    string `json:"phone"    validate:"required,min=7"`
	Address  string `json:"address"  validate:"required,min=5"`
	City     string `json:"city"     validate:"required"`
	ZipCode  string `json:"zipCode"  validate:"required,min=3"`
	Country  string `json:"country"  validate:"required"`
}

// Payment carries the chosen method plus card details, which are only
// required (and only validated) for credit-card payments. Card data is
// never stored on the order.
type Payment struct {
	Method     PaymentMethod `json:"method" validate:"required,oneof=credit-card paypal cash-on-delivery"`
	CardNumber string        `json:"cardNumber,omitempty"`
	CardExpiry string        `json:"cardExpiry,omitempty"`
	CardCVV    string        `json:"cardCVV,omitempty"`
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{13,19}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	cardCVVPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// ValidateCard checks credit-card details: number length, MM/YY expiry not
// in the past, CVV length. Non-card methods pass unconditionally.
func (p Payment) ValidateCard(now time.Time) error {
	if p.Method != PaymentCreditCard {
		return nil
	}

	number := strings.ReplaceAll(p.CardNumber, " ", "")
	if !cardNumberPattern.MatchString(number) {
		return fmt.Errorf("invalid card number")
	}

	m := cardExpiryPattern.FindStringSubmatch(p.CardExpiry)
	if m == nil {
		return fmt.Errorf("invalid expiry date, use MM/YY")
	}
	// The card stays valid through the last day of its expiry month.
	year := 2000 + int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	month := time.Month(int(m[1][0]-'0')*10 + int(m[1][1]-'0'))
	endOfMonth := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(endOfMonth) {
		return fmt.Errorf("card has expired")
	}

	if !cardCVVPattern.MatchString(p.CardCVV) {
		return fmt.Errorf("invalid CVV")
	}

	return nil
}

// Order is the immutable record of a committed checkout: a snapshot of the
// cart lines and totals at commit time.
type Order struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	Items       []cart.LineItem `json:"items"`
	Subtotal    float64         `json:"subtotal"`
	Shipping    float64         `json:"shipping"`
	Tax         float64         `json:"tax"`
	Total       float64         `json:"total"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	ShippingTo  ShippingInfo    `json:"shippingInfo"`
	PaidWith    PaymentMethod   `json:"paymentMethod"`
}

var (
	orderNumberMu   sync.Mutex
	lastOrderMillis int64
)

// newOrderNumber derives a human-readable number from the commit
// timestamp's last eight digits, bumping the clock value when two commits
// land in the same millisecond.
func newOrderNumber(now time.Time) string {
	orderNumberMu.Lock()
	defer orderNumberMu.Unlock()

	millis := now.UnixMilli()
	if millis <= lastOrderMillis {
		millis = lastOrderMillis + 1
	}
	lastOrderMillis = millis

	digits := fmt.Sprintf("%d", millis)
	if len(digits) > 8 {
		digits = digits[len(digits)-8:]
	}
	return "ORD-" + digits
}

func newOrder(items []cart.LineItem, totals cart.Totals, shipping ShippingInfo, method PaymentMethod, now time.Time) *Order {
	return &Order{
		ID:          uuid.NewString(),
		OrderNumber: newOrderNumber(now),
		Items:       items,
		Subtotal:    totals.Subtotal,
		Shipping:    totals.Shipping,
		Tax:         totals.Tax,
		Total:       totals.Total,
		Status:      StatusProcessing,
		CreatedAt:   now,
		ShippingTo:  shipping,
		PaidWith:    method,
	}
}
