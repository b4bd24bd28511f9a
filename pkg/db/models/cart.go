package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/enums"
)

// Cart is a shopping session owned by one user.
type Cart struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Status            enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CheckoutStartedAt *time.Time       `gorm:"column:checkout_started_at"`
	ClaimID           *uuid.UUID       `gorm:"column:claim_id;type:uuid"`
	Lines             []CartLine       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side when the caller did not.
func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
