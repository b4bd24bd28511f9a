package checkout

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/practicerx-backend/internal/checkout/helpers"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

const maxShippingLookups = 4

// priceShipping quotes every group once. Groups are independent, so lookups run concurrently;
// any failure aborts the checkout before anything is written.
func (s *service) priceShipping(ctx context.Context, groups []*helpers.ShippingGroup) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxShippingLookups)
	for _, group := range groups {
		group := group
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.cfg.ShippingTimeout)
			defer cancel()
			cost, err := s.shipping.CalculateShipping(callCtx, group.Key.PharmacyID, group.Key.Speed)
			if err != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"pharmacy_id":    group.Key.PharmacyID.String(),
					"shipping_speed": group.Key.Speed.String(),
				})
				s.logg.Error(logCtx, "shipping quote failed", err)
				return pkgerrors.Wrap(pkgerrors.CodeUpstream, err,
					fmt.Sprintf("Unable to calculate shipping for %s shipping", group.Key.Speed))
			}
			group.Cost = cost
			return nil
		})
	}
	return g.Wait()
}
