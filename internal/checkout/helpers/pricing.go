package helpers

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LinePricing is the money breakdown of one order. Every amount is rounded half-even to cents.
type LinePricing struct {
	LineTotal       decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountedPrice decimal.Decimal
	ShippingCost    decimal.Decimal
	MerchantFee     decimal.Decimal
	Total           decimal.Decimal
}

// PriceLine computes the order amounts for a line. The merchant fee is charged on the
// discounted subtotal plus shipping.
func PriceLine(unitPrice decimal.Decimal, quantity int, discountPct, feePct, shipping decimal.Decimal) LinePricing {
	lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).RoundBank(2)
	discount := lineTotal.Mul(discountPct).Div(hundred).RoundBank(2)
	discountedPrice := unitPrice.Mul(hundred.Sub(discountPct)).Div(hundred).RoundBank(2)
	shipping = shipping.RoundBank(2)
	base := lineTotal.Sub(discount).Add(shipping)
	fee := base.Mul(feePct).Div(hundred).RoundBank(2)

	return LinePricing{
		LineTotal:       lineTotal,
		DiscountAmount:  discount,
		DiscountedPrice: discountedPrice,
		ShippingCost:    shipping,
		MerchantFee:     fee,
		Total:           base.Add(fee),
	}
}
