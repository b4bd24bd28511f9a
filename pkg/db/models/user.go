package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	"github.com/angelmondragon/practicerx-backend/pkg/types"
)

// User is an account on the platform. Doctors own a practice; staff and providers link to one.
type User struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string         `gorm:"column:email;not null;unique"`
	FullName        string         `gorm:"column:full_name;not null"`
	Role            enums.UserRole `gorm:"column:role;type:text;not null"`
	PracticeID      *uuid.UUID     `gorm:"column:practice_id;type:uuid"`
	ShippingAddress *types.Address `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side when the caller did not.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
