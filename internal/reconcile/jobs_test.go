package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExpirer struct {
	cutoff  time.Time
	limit   int
	expired int
	err     error
}

func (s *stubExpirer) ExpireAbandoned(_ context.Context, cutoff time.Time, limit int) (int, error) {
	s.cutoff = cutoff
	s.limit = limit
	return s.expired, s.err
}

type stubReleaser struct {
	released int64
	err      error
	calls    int
}

func (s *stubReleaser) ReleaseAbandonedClaims(context.Context) (int64, error) {
	s.calls++
	return s.released, s.err
}

func TestAbandonedOrdersJobUsesCutoffAndBatch(t *testing.T) {
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	expirer := &stubExpirer{expired: 3}
	job, err := NewAbandonedOrdersJob(AbandonedOrdersJobParams{
		Logger:     testLogger(),
		Orders:     expirer,
		StaleAfter: 30 * time.Minute,
		BatchSize:  50,
		Now:        func() time.Time { return fixed },
	})
	require.NoError(t, err)
	assert.Equal(t, "abandoned_orders", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, fixed.Add(-30*time.Minute), expirer.cutoff)
	assert.Equal(t, 50, expirer.limit)
}

func TestAbandonedOrdersJobDefaults(t *testing.T) {
	expirer := &stubExpirer{}
	job, err := NewAbandonedOrdersJob(AbandonedOrdersJobParams{Logger: testLogger(), Orders: expirer})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, defaultBatchSize, expirer.limit)
	assert.WithinDuration(t, time.Now().UTC().Add(-defaultStaleAfter), expirer.cutoff, time.Minute)
}

func TestAbandonedOrdersJobPropagatesError(t *testing.T) {
	job, err := NewAbandonedOrdersJob(AbandonedOrdersJobParams{
		Logger: testLogger(),
		Orders: &stubExpirer{expired: 1, err: errors.New("partial")},
	})
	require.NoError(t, err)
	assert.Error(t, job.Run(context.Background()))
}

func TestStaleClaimsJob(t *testing.T) {
	releaser := &stubReleaser{released: 2}
	job, err := NewStaleClaimsJob(StaleClaimsJobParams{Logger: testLogger(), Carts: releaser})
	require.NoError(t, err)
	assert.Equal(t, "stale_cart_claims", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, releaser.calls)

	failing, err := NewStaleClaimsJob(StaleClaimsJobParams{Logger: testLogger(), Carts: &stubReleaser{err: errors.New("db")}})
	require.NoError(t, err)
	assert.Error(t, failing.Run(context.Background()))
}

func TestJobConstructorsRequireDeps(t *testing.T) {
	_, err := NewAbandonedOrdersJob(AbandonedOrdersJobParams{Orders: &stubExpirer{}})
	assert.Error(t, err)
	_, err = NewAbandonedOrdersJob(AbandonedOrdersJobParams{Logger: testLogger()})
	assert.Error(t, err)
	_, err = NewStaleClaimsJob(StaleClaimsJobParams{Logger: testLogger()})
	assert.Error(t, err)
}
