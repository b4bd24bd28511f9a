package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/enums"
)

// PaymentMethod is a Square card-on-file stored for a practice.
type PaymentMethod struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID          uuid.UUID               `gorm:"column:owner_id;type:uuid;not null;index"`
	Type             enums.PaymentMethodType `gorm:"column:type;type:text;not null;default:'card'"`
	SquareCustomerID string                  `gorm:"column:square_customer_id;not null"`
	SquareCardID     string                  `gorm:"column:square_card_id;not null;unique"`
	CardBrand        *string                 `gorm:"column:card_brand"`
	CardLast4        *string                 `gorm:"column:card_last4"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side when the caller did not.
func (m *PaymentMethod) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
