package helpers

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

// ValidatePercentage rejects values outside 0..100 and values finer than the
// two decimal places the percentage columns store.
func ValidatePercentage(field string, value decimal.Decimal) error {
	if value.IsNegative() || value.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be between 0 and 100", field))
	}
	if !value.Equal(value.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must have at most 2 decimal places", field))
	}
	return nil
}

// ValidateLine rejects lines that cannot be priced.
func ValidateLine(line models.CartLine) error {
	details := map[string]any{"cart_line_id": line.ID}
	if line.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be positive").WithDetails(details)
	}
	if line.PriceSnapshot.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart line price must not be negative").WithDetails(details)
	}
	if !line.ShippingSpeed.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shipping speed %q", line.ShippingSpeed)).WithDetails(details)
	}
	return nil
}
