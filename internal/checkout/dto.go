package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/internal/orders"
)

// PlaceOrderInput carries the request options of one checkout.
type PlaceOrderInput struct {
	CartID                uuid.UUID
	PaymentMethodID       uuid.UUID
	DiscountCode          *string
	DiscountPercentage    decimal.Decimal
	MerchantFeePercentage *decimal.Decimal
}

// Result is returned once orders exist. Success is true only when every order was paid.
type Result struct {
	Success              bool              `json:"success"`
	CheckoutID           uuid.UUID         `json:"checkout_id"`
	CreatedOrders        []orders.OrderDTO `json:"created_orders"`
	FailedPayments       []FailedPayment   `json:"failed_payments"`
	FailedOrders         []uuid.UUID       `json:"failed_orders"`
	ExecutionTimeSeconds float64           `json:"execution_time_seconds"`
}

// FailedPayment describes one order whose charge did not go through.
type FailedPayment struct {
	OrderID         uuid.UUID      `json:"order_id"`
	OrderNumber     string         `json:"order_number"`
	Success         bool           `json:"success"`
	Error           string         `json:"error"`
	GatewayResponse map[string]any `json:"authorizenet_response"`
}
