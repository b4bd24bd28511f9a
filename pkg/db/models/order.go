package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	"github.com/angelmondragon/practicerx-backend/pkg/types"
)

// Order is the billable unit created from exactly one cart line.
type Order struct {
	ID                     uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID             uuid.UUID               `gorm:"column:checkout_id;type:uuid;not null;index"`
	SourceCartLineID       uuid.UUID               `gorm:"column:source_cart_line_id;type:uuid;not null"`
	OrderNumber            string                  `gorm:"column:order_number;not null;unique"`
	DoctorID               uuid.UUID               `gorm:"column:doctor_id;type:uuid;not null;index"`
	PlacedByID             uuid.UUID               `gorm:"column:placed_by_id;type:uuid;not null"`
	Status                 enums.OrderStatus       `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus          enums.PaymentStatus     `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	ShipTo                 enums.ShipTo            `gorm:"column:ship_to;type:text;not null"`
	ShippingAddress        *types.Address          `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	SubtotalBeforeDiscount decimal.Decimal         `gorm:"column:subtotal_before_discount;type:numeric(12,2);not null"`
	DiscountCode           *string                 `gorm:"column:discount_code"`
	DiscountPercentage     decimal.Decimal         `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0"`
	DiscountAmount         decimal.Decimal         `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	ShippingTotal          decimal.Decimal         `gorm:"column:shipping_total;type:numeric(12,2);not null;default:0"`
	MerchantFeePercentage  decimal.Decimal         `gorm:"column:merchant_fee_percentage;type:numeric(5,2);not null;default:0"`
	MerchantFeeAmount      decimal.Decimal         `gorm:"column:merchant_fee_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount            decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentMethodID        uuid.UUID               `gorm:"column:payment_method_id;type:uuid;not null"`
	PaymentMethodType      enums.PaymentMethodType `gorm:"column:payment_method_type;type:text;not null"`
	PaymentReference       *string                 `gorm:"column:payment_reference"`
	PaymentError           *string                 `gorm:"column:payment_error"`
	PaidAt                 *time.Time              `gorm:"column:paid_at"`
	Lines                  []OrderLine             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt              time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side when the caller did not.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
