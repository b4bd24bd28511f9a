package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutsvc "github.com/angelmondragon/practicerx-backend/internal/checkout"
	"github.com/angelmondragon/practicerx-backend/pkg/auth"
	"github.com/angelmondragon/practicerx-backend/pkg/config"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	"github.com/angelmondragon/practicerx-backend/pkg/logger"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type memoryStore struct{ data map[string]string }

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

type allowCSRF struct{}

func (allowCSRF) Validate(context.Context, string, string) (bool, error) { return true, nil }
func (allowCSRF) Issue(context.Context, string) (string, error)          { return "token", nil }

type countingCheckout struct{ calls int }

func (c *countingCheckout) PlaceOrder(context.Context, checkoutsvc.CallerContext, checkoutsvc.PlaceOrderInput) (*checkoutsvc.Result, error) {
	c.calls++
	return &checkoutsvc.Result{Success: true, CheckoutID: uuid.New()}, nil
}

func testRouter(t *testing.T, checkout *countingCheckout) (http.Handler, config.JWTConfig) {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "practicerx", ExpirationMinutes: 30},
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"}))
	return NewRouter(Deps{
		Config:      cfg,
		Logger:      logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard}),
		DB:          okPinger{},
		Redis:       okPinger{},
		Idempotency: &memoryStore{data: map[string]string{}},
		CSRF:        allowCSRF{},
		Checkout:    checkout,
		Gatherer:    reg,
	}), cfg.JWT
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _ := testRouter(t, &countingCheckout{})

	for _, path := range []string{"/health/live", "/health/ready", "/api/public/ping"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, resp.Code, path)
		assert.NotEmpty(t, resp.Header().Get("X-Request-Id"), path)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "router_test_total")
}

func TestRouterCheckoutRequiresAuth(t *testing.T) {
	checkout := &countingCheckout{}
	router, _ := testRouter(t, checkout)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.JSONEq(t, `{"error":"Unauthorized","code":"UNAUTHORIZED"}`, resp.Body.String())
	assert.Zero(t, checkout.calls)
}

func TestRouterCheckoutReplaysByIdempotencyKey(t *testing.T) {
	checkout := &countingCheckout{}
	router, jwtCfg := testRouter(t, checkout)
	token, err := auth.MintAccessToken(jwtCfg, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleDoctor,
	})
	require.NoError(t, err)

	body := `{"cart_id":"` + uuid.NewString() + `","payment_method_id":"` + uuid.NewString() + `","csrf_token":"token"}`
	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	assert.Equal(t, http.StatusBadRequest, send("").Code)
	first := send("attempt-1")
	require.Equal(t, http.StatusOK, first.Code)
	replay := send("attempt-1")
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Contains(t, first.Body.String(), `"success":true`)
	assert.NotContains(t, first.Body.String(), `"data"`)
	assert.Equal(t, 1, checkout.calls)
}

func TestRouterCSRFToken(t *testing.T) {
	router, jwtCfg := testRouter(t, &countingCheckout{})
	token, err := auth.MintAccessToken(jwtCfg, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleStaff,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/csrf-token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"csrf_token":"token"`)
}
