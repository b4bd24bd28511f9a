package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/practicerx-backend/pkg/logger"
)

const (
	abandonedOrdersJobName = "abandoned_orders"
	defaultStaleAfter      = time.Hour
	defaultBatchSize       = 200
)

type orderExpirer interface {
	ExpireAbandoned(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type AbandonedOrdersJobParams struct {
	Logger     *logger.Logger
	Orders     orderExpirer
	StaleAfter time.Duration
	BatchSize  int
	Now        func() time.Time
}

// abandonedOrdersJob fails orders whose checkout died between persistence
// and payment settlement, so they never sit in pending forever.
type abandonedOrdersJob struct {
	logg       *logger.Logger
	orders     orderExpirer
	staleAfter time.Duration
	batchSize  int
	now        func() time.Time
}

func NewAbandonedOrdersJob(params AbandonedOrdersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	job := &abandonedOrdersJob{
		logg:       params.Logger,
		orders:     params.Orders,
		staleAfter: params.StaleAfter,
		batchSize:  params.BatchSize,
		now:        params.Now,
	}
	if job.staleAfter <= 0 {
		job.staleAfter = defaultStaleAfter
	}
	if job.batchSize <= 0 {
		job.batchSize = defaultBatchSize
	}
	if job.now == nil {
		job.now = func() time.Time { return time.Now().UTC() }
	}
	return job, nil
}

func (j *abandonedOrdersJob) Name() string { return abandonedOrdersJobName }

func (j *abandonedOrdersJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.staleAfter)
	expired, err := j.orders.ExpireAbandoned(ctx, cutoff, j.batchSize)
	ctx = j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": expired,
	})
	if err != nil {
		return err
	}
	if expired > 0 {
		j.logg.Warn(ctx, "expired abandoned orders")
	}
	return nil
}
