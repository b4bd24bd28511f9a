package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/api/responses"
	"github.com/angelmondragon/practicerx-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/practicerx-backend/internal/checkout"
	"github.com/angelmondragon/practicerx-backend/pkg/auth/csrf"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
	"github.com/angelmondragon/practicerx-backend/pkg/logger"
)

const (
	msgInvalidCSRF       = "Invalid CSRF token"
	maxDiscountCodeChars = 64
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, caller checkoutsvc.CallerContext, input checkoutsvc.PlaceOrderInput) (*checkoutsvc.Result, error)
}

// Checkout turns the caller's cart into orders and settles their payments.
func Checkout(svc orderPlacer, tokens csrf.Validator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || tokens == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		caller, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		valid, err := tokens.Validate(r.Context(), caller.UserID.String(), payload.CSRFToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate csrf token"))
			return
		}
		if !valid {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, msgInvalidCSRF))
			return
		}

		result, err := svc.PlaceOrder(r.Context(), caller, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, result)
	}
}

type checkoutRequest struct {
	CartID                uuid.UUID        `json:"cart_id" validate:"required"`
	PaymentMethodID       uuid.UUID        `json:"payment_method_id" validate:"required"`
	DiscountCode          *string          `json:"discount_code,omitempty"`
	DiscountPercentage    *decimal.Decimal `json:"discount_percentage,omitempty"`
	MerchantFeePercentage *decimal.Decimal `json:"merchant_fee_percentage,omitempty"`
	CSRFToken             string           `json:"csrf_token"`
}

func (c checkoutRequest) toInput() checkoutsvc.PlaceOrderInput {
	input := checkoutsvc.PlaceOrderInput{
		CartID:                c.CartID,
		PaymentMethodID:       c.PaymentMethodID,
		DiscountPercentage:    decimal.Zero,
		MerchantFeePercentage: c.MerchantFeePercentage,
	}
	if c.DiscountPercentage != nil {
		input.DiscountPercentage = *c.DiscountPercentage
	}
	if c.DiscountCode != nil {
		if code := validators.SanitizeString(*c.DiscountCode, maxDiscountCodeChars); code != "" {
			input.DiscountCode = &code
		}
	}
	return input
}
