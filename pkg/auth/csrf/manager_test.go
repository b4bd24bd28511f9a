package csrf

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	data   map[string]string
	getErr error
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memoryStore) CSRFKey(userID string) string {
	return "csrf:" + userID
}

func newTestManager() (*Manager, *memoryStore) {
	store := &memoryStore{data: map[string]string{}}
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestIssueAndValidate(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager()
	ctx := context.Background()

	token, err := m.Issue(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ok, err := m.Validate(ctx, "user-1", token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Validate(ctx, "user-2", token)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = m.Validate(ctx, "user-1", "forged")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIssueReplacesPreviousToken(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager()
	ctx := context.Background()

	first, err := m.Issue(ctx, "user-1")
	require.NoError(t, err)
	second, err := m.Issue(ctx, "user-1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ok, err := m.Validate(ctx, "user-1", first)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidateEmptyAndStoreErrors(t *testing.T) {
	t.Parallel()
	m, store := newTestManager()
	ctx := context.Background()

	ok, err := m.Validate(ctx, "user-1", "")
	require.NoError(t, err)
	require.False(t, ok)

	store.getErr = errors.New("redis down")
	_, err = m.Validate(ctx, "user-1", "token")
	require.Error(t, err)
}
