package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	"github.com/angelmondragon/practicerx-backend/pkg/types"
)

// CartLine is one product selection. A present PatientID means the line ships to the patient.
type CartLine struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID             uuid.UUID           `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID          uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Quantity           int                 `gorm:"column:quantity;not null"`
	PriceSnapshot      decimal.Decimal     `gorm:"column:price_snapshot;type:numeric(12,2);not null"`
	ShippingSpeed      enums.ShippingSpeed `gorm:"column:shipping_speed;type:text;not null"`
	PatientID          *uuid.UUID          `gorm:"column:patient_id;type:uuid"`
	PatientName        *string             `gorm:"column:patient_name"`
	PatientEmail       *string             `gorm:"column:patient_email"`
	PatientPhone       *string             `gorm:"column:patient_phone"`
	PatientAddress     *types.Address      `gorm:"column:patient_address;type:jsonb;serializer:json"`
	PrescriptionURL    *string             `gorm:"column:prescription_url"`
	PrescriptionMethod *string             `gorm:"column:prescription_method"`
	RefillsTotal       int                 `gorm:"column:refills_total;not null;default:0"`
	DestinationState   *string             `gorm:"column:destination_state"`
	ProviderID         *uuid.UUID          `gorm:"column:provider_id;type:uuid"`
	PharmacyID         *uuid.UUID          `gorm:"column:pharmacy_id;type:uuid"`
	Notes              *string             `gorm:"column:notes"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ShipsToPatient reports whether the line is destined for the patient rather than the practice.
func (l CartLine) ShipsToPatient() bool {
	return l.PatientID != nil && *l.PatientID != uuid.Nil
}

// BeforeCreate assigns the primary key client-side when the caller did not.
func (l *CartLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
