package reconcile

import (
	"context"
	"fmt"

	"github.com/angelmondragon/practicerx-backend/pkg/logger"
)

const staleClaimsJobName = "stale_cart_claims"

type claimReleaser interface {
	ReleaseAbandonedClaims(ctx context.Context) (int64, error)
}

type StaleClaimsJobParams struct {
	Logger *logger.Logger
	Carts  claimReleaser
}

// staleClaimsJob returns carts stuck in checking_out to active when the
// process that claimed them died before releasing.
type staleClaimsJob struct {
	logg  *logger.Logger
	carts claimReleaser
}

func NewStaleClaimsJob(params StaleClaimsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &staleClaimsJob{logg: params.Logger, carts: params.Carts}, nil
}

func (j *staleClaimsJob) Name() string { return staleClaimsJobName }

func (j *staleClaimsJob) Run(ctx context.Context) error {
	released, err := j.carts.ReleaseAbandonedClaims(ctx)
	if err != nil {
		return err
	}
	if released > 0 {
		j.logg.Warn(j.logg.WithField(ctx, "released", released), "released stale cart claims")
	}
	return nil
}
