package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountCode is a redeemable promotion.
type DiscountCode struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code       string          `gorm:"column:code;not null;unique"`
	Percentage decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null"`
	MaxUses    *int            `gorm:"column:max_uses"`
	TimesUsed  int             `gorm:"column:times_used;not null;default:0"`
	Active     bool            `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side when the caller did not.
func (d *DiscountCode) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DiscountCodeUsage records one checkout that redeemed a code.
type DiscountCodeUsage struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DiscountCodeID uuid.UUID `gorm:"column:discount_code_id;type:uuid;not null"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key client-side when the caller did not.
func (u *DiscountCodeUsage) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
