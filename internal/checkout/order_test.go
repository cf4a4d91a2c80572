package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateCard(t *testing.T) {
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payment Payment
		wantErr string
	}{
		{
			name: "valid card",
			payment: Payment{
				Method: PaymentCreditCard, CardNumber: "4111111111111111", CardExpiry: "12/26", CardCVV: "123",
			},
		},
		{
			name: "spaces in number accepted",
			payment: Payment{
				Method: PaymentCreditCard, CardNumber: "4111 1111 1111 1111", CardExpiry: "12/26", CardCVV: "1234",
			},
		},
		{
			name: "expires this month is still valid",
			payment: Payment{
				Method: PaymentCreditCard, CardNumber: "4111111111111111", CardExpiry: "08/26", CardCVV: "123",
			},
		},
		{
			name: "expired last month",
			payment: Payment{
				Method: PaymentCreditCard, CardNumber: "4111111111111111", CardExpiry: "07/26", CardCVV: "123",
			},
			wantErr: "card has expired",
		},
		{
			name: "number too short",
			payment: Payment{
				Method: PaymentCreditCard, CardNumber: "411111", CardExpiry: "12/26", CardCVV: "123",
			},
			wantErr: "invalid card number",
		},
		{
			name: "bad expiry format",
			payment: Payment{
				Method: PaymentCreditCard, CardNumber: "4111111111111111", CardExpiry: "13/26", CardCVV: "123",
			},
			wantErr: "invalid expiry date, use MM/YY",
		},
		{
			name: "bad cvv",
			payment: Payment{
				Method: PaymentCreditCard, CardNumber: "4111111111111111", CardExpiry: "12/26", CardCVV: "12",
			},
			wantErr: "invalid CVV",
		},
		{
			name:    "paypal skips card checks",
			payment: Payment{Method: PaymentPayPal},
		},
		{
			name:    "cash on delivery skips card checks",
			payment: Payment{Method: PaymentCashOnDelivery},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payment.ValidateCard(now)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewOrderNumber_Format(t *testing.T) {
	number := newOrderNumber(time.Now())
	require.Regexp(t, `^ORD-\d{8}$`, number)
}

func TestNewOrderNumber_UniqueWithinMillisecond(t *testing.T) {
	now := time.Now()

	first := newOrderNumber(now)
	second := newOrderNumber(now)
	require.NotEqual(t, first, second)
}
