package checkout

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/internal/checkout/helpers"
	"github.com/angelmondragon/practicerx-backend/internal/orders"
	"github.com/angelmondragon/practicerx-backend/internal/practices"
	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
)

type draftPlan struct {
	checkoutID  uuid.UUID
	caller      CallerContext
	practice    practices.Context
	method      *models.PaymentMethod
	discountPct decimal.Decimal
	feePct      decimal.Decimal
	code        *string
	now         time.Time
}

// build produces one order and one order line per cart line.
func (p draftPlan) build(lines []models.CartLine, shipping map[uuid.UUID]decimal.Decimal) []orders.Draft {
	drafts := make([]orders.Draft, 0, len(lines))
	for _, line := range lines {
		pricing := helpers.PriceLine(line.PriceSnapshot, line.Quantity, p.discountPct, p.feePct, shipping[line.ID])

		shipTo := enums.ShipToPractice
		address := p.practice.PracticeAddress
		if line.ShipsToPatient() {
			shipTo = enums.ShipToPatient
			address = nil
		}

		order := models.Order{
			ID:                     uuid.New(),
			CheckoutID:             p.checkoutID,
			SourceCartLineID:       line.ID,
			OrderNumber:            helpers.NewOrderNumber(p.now),
			DoctorID:               p.practice.PracticeID,
			PlacedByID:             p.caller.UserID,
			Status:                 enums.OrderStatusPending,
			PaymentStatus:          enums.PaymentStatusPending,
			ShipTo:                 shipTo,
			ShippingAddress:        address,
			SubtotalBeforeDiscount: pricing.LineTotal,
			DiscountCode:           p.code,
			DiscountPercentage:     p.discountPct,
			DiscountAmount:         pricing.DiscountAmount,
			ShippingTotal:          pricing.ShippingCost,
			MerchantFeePercentage:  p.feePct,
			MerchantFeeAmount:      pricing.MerchantFee,
			TotalAmount:            pricing.Total,
			PaymentMethodID:        p.method.ID,
			PaymentMethodType:      p.method.Type,
		}
		orderLine := models.OrderLine{
			ID:                  uuid.New(),
			OrderID:             order.ID,
			ProductID:           line.ProductID,
			Quantity:            line.Quantity,
			PriceBeforeDiscount: line.PriceSnapshot,
			DiscountedPrice:     pricing.DiscountedPrice,
			DiscountAmount:      pricing.DiscountAmount,
			ShippingCost:        pricing.ShippingCost,
			ShippingSpeed:       line.ShippingSpeed,
			PatientID:           line.PatientID,
			PatientName:         line.PatientName,
			PatientEmail:        line.PatientEmail,
			PatientPhone:        line.PatientPhone,
			PatientAddress:      line.PatientAddress,
			PrescriptionURL:     line.PrescriptionURL,
			PrescriptionMethod:  line.PrescriptionMethod,
			RefillsTotal:        line.RefillsTotal,
			RefillsRemaining:    line.RefillsTotal,
			DestinationState:    line.DestinationState,
			ProviderID:          p.practice.ProviderFor(line.ProviderID),
			PharmacyID:          line.PharmacyID,
			Notes:               line.Notes,
		}
		drafts = append(drafts, orders.Draft{Order: order, Line: orderLine})
	}
	return drafts
}

func normalizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*code)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
