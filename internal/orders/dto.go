package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	"github.com/angelmondragon/practicerx-backend/pkg/types"
)

// OrderDTO is the order shape returned from checkout.
type OrderDTO struct {
	ID                     uuid.UUID               `json:"id"`
	CheckoutID             uuid.UUID               `json:"checkout_id"`
	OrderNumber            string                  `json:"order_number"`
	DoctorID               uuid.UUID               `json:"doctor_id"`
	PlacedByID             uuid.UUID               `json:"placed_by_id"`
	Status                 enums.OrderStatus       `json:"status"`
	PaymentStatus          enums.PaymentStatus     `json:"payment_status"`
	ShipTo                 enums.ShipTo            `json:"ship_to"`
	ShippingAddress        *types.Address          `json:"shipping_address"`
	SubtotalBeforeDiscount decimal.Decimal         `json:"subtotal_before_discount"`
	DiscountCode           *string                 `json:"discount_code"`
	DiscountPercentage     decimal.Decimal         `json:"discount_percentage"`
	DiscountAmount         decimal.Decimal         `json:"discount_amount"`
	ShippingTotal          decimal.Decimal         `json:"shipping_total"`
	MerchantFeePercentage  decimal.Decimal         `json:"merchant_fee_percentage"`
	MerchantFeeAmount      decimal.Decimal         `json:"merchant_fee_amount"`
	TotalAmount            decimal.Decimal         `json:"total_amount"`
	PaymentMethodID        uuid.UUID               `json:"payment_method_id"`
	PaymentMethodType      enums.PaymentMethodType `json:"payment_method_type"`
	PaymentReference       *string                 `json:"payment_reference,omitempty"`
	PaidAt                 *time.Time              `json:"paid_at,omitempty"`
	Lines                  []OrderLineDTO          `json:"order_lines"`
	CreatedAt              time.Time               `json:"created_at"`
}

// OrderLineDTO is the fulfillment detail nested under OrderDTO.
type OrderLineDTO struct {
	ID                  uuid.UUID           `json:"id"`
	OrderID             uuid.UUID           `json:"order_id"`
	ProductID           uuid.UUID           `json:"product_id"`
	Quantity            int                 `json:"quantity"`
	PriceBeforeDiscount decimal.Decimal     `json:"price_before_discount"`
	DiscountedPrice     decimal.Decimal     `json:"discounted_price"`
	DiscountAmount      decimal.Decimal     `json:"discount_amount"`
	ShippingCost        decimal.Decimal     `json:"shipping_cost"`
	ShippingSpeed       enums.ShippingSpeed `json:"shipping_speed"`
	PatientID           *uuid.UUID          `json:"patient_id"`
	PatientName         *string             `json:"patient_name,omitempty"`
	PatientEmail        *string             `json:"patient_email,omitempty"`
	PatientPhone        *string             `json:"patient_phone,omitempty"`
	PatientAddress      *types.Address      `json:"patient_address,omitempty"`
	PrescriptionURL     *string             `json:"prescription_url,omitempty"`
	PrescriptionMethod  *string             `json:"prescription_method,omitempty"`
	RefillsTotal        int                 `json:"refills_total"`
	RefillsRemaining    int                 `json:"refills_remaining"`
	DestinationState    *string             `json:"destination_state,omitempty"`
	ProviderID          *uuid.UUID          `json:"provider_id"`
	PharmacyID          *uuid.UUID          `json:"pharmacy_id"`
	Notes               *string             `json:"notes,omitempty"`
}

// NewOrderDTO maps a persisted order and its lines.
func NewOrderDTO(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                     order.ID,
		CheckoutID:             order.CheckoutID,
		OrderNumber:            order.OrderNumber,
		DoctorID:               order.DoctorID,
		PlacedByID:             order.PlacedByID,
		Status:                 order.Status,
		PaymentStatus:          order.PaymentStatus,
		ShipTo:                 order.ShipTo,
		ShippingAddress:        order.ShippingAddress,
		SubtotalBeforeDiscount: order.SubtotalBeforeDiscount,
		DiscountCode:           order.DiscountCode,
		DiscountPercentage:     order.DiscountPercentage,
		DiscountAmount:         order.DiscountAmount,
		ShippingTotal:          order.ShippingTotal,
		MerchantFeePercentage:  order.MerchantFeePercentage,
		MerchantFeeAmount:      order.MerchantFeeAmount,
		TotalAmount:            order.TotalAmount,
		PaymentMethodID:        order.PaymentMethodID,
		PaymentMethodType:      order.PaymentMethodType,
		PaymentReference:       order.PaymentReference,
		PaidAt:                 order.PaidAt,
		Lines:                  make([]OrderLineDTO, 0, len(order.Lines)),
		CreatedAt:              order.CreatedAt,
	}
	for _, line := range order.Lines {
		dto.Lines = append(dto.Lines, OrderLineDTO{
			ID:                  line.ID,
			OrderID:             line.OrderID,
			ProductID:           line.ProductID,
			Quantity:            line.Quantity,
			PriceBeforeDiscount: line.PriceBeforeDiscount,
			DiscountedPrice:     line.DiscountedPrice,
			DiscountAmount:      line.DiscountAmount,
			ShippingCost:        line.ShippingCost,
			ShippingSpeed:       line.ShippingSpeed,
			PatientID:           line.PatientID,
			PatientName:         line.PatientName,
			PatientEmail:        line.PatientEmail,
			PatientPhone:        line.PatientPhone,
			PatientAddress:      line.PatientAddress,
			PrescriptionURL:     line.PrescriptionURL,
			PrescriptionMethod:  line.PrescriptionMethod,
			RefillsTotal:        line.RefillsTotal,
			RefillsRemaining:    line.RefillsRemaining,
			DestinationState:    line.DestinationState,
			ProviderID:          line.ProviderID,
			PharmacyID:          line.PharmacyID,
			Notes:               line.Notes,
		})
	}
	return dto
}
