package checkout

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
)

const (
	effectPharmacySubmission = "pharmacy_submission"
	effectDiscountUsage      = "discount_usage"
	effectCartClear          = "cart_clear"
)

// bestEffort runs a side effect under its own timeout. Failures are logged and counted but
// never change the checkout result.
func (s *service) bestEffort(ctx context.Context, effect string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.SideEffectTimeout)
	defer cancel()
	if err := fn(callCtx); err != nil {
		s.metrics.IncSideEffectFailure(effect)
		s.logg.Error(s.logg.WithField(ctx, "side_effect", effect), "checkout side effect failed", err)
		return err
	}
	return nil
}

// afterFullSuccess records the discount once per checkout and empties the cart.
func (s *service) afterFullSuccess(ctx context.Context, caller CallerContext, cartID uuid.UUID, code *string, created []models.Order) {
	var errs error
	if code != nil && len(created) > 0 {
		orderID := created[0].ID
		errs = multierr.Append(errs, s.bestEffort(ctx, effectDiscountUsage, func(ctx context.Context) error {
			return s.discounts.IncrementUsage(ctx, *code, caller.UserID, orderID)
		}))
	}
	errs = multierr.Append(errs, s.bestEffort(ctx, effectCartClear, func(ctx context.Context) error {
		return s.carts.ClearLines(ctx, cartID)
	}))
	if errs != nil {
		s.logg.Warn(s.logg.WithField(ctx, "failed_side_effects", len(multierr.Errors(errs))), "checkout completed with side effect failures")
	}
}
