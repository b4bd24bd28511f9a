package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

func TestCalculateShippingRequest(t *testing.T) {
	pharmacyID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/v1/calculate-shipping" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ship-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["pharmacy_id"] != pharmacyID.String() || payload["shipping_speed"] != "overnight" {
			t.Fatalf("unexpected payload %v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"shipping_cost": 24.5}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/v1/", WithAPIKey("ship-key"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	cost, err := client.CalculateShipping(context.Background(), pharmacyID, enums.ShippingSpeedOvernight)
	if err != nil {
		t.Fatalf("calculate shipping: %v", err)
	}
	if !cost.Equal(decimal.RequireFromString("24.50")) {
		t.Fatalf("unexpected cost %s", cost)
	}
}

func TestCalculateShippingSendsNullPharmacy(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"pharmacy_id":null`) {
			t.Fatalf("expected null pharmacy id, got %s", body)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"shipping_cost":"0"}`)),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient("http://shipping.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	cost, err := client.CalculateShipping(context.Background(), uuid.Nil, enums.ShippingSpeedStandard)
	if err != nil {
		t.Fatalf("calculate shipping: %v", err)
	}
	if !cost.IsZero() {
		t.Fatalf("expected zero cost, got %s", cost)
	}
}

func TestCalculateShippingMissingCost(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{}`)),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient("http://shipping.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.CalculateShipping(context.Background(), uuid.New(), enums.ShippingSpeedStandard)
	if !errors.Is(err, ErrNoCost) {
		t.Fatalf("expected ErrNoCost, got %v", err)
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCalculateShippingNon200(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader(`carrier down`)),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient("http://shipping.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.CalculateShipping(context.Background(), uuid.New(), enums.ShippingSpeedStandard)
	if err == nil || !strings.Contains(err.Error(), "shipping request failed") {
		t.Fatalf("expected request failure, got %v", err)
	}
}

func TestCalculateShippingRejectsUnknownSpeed(t *testing.T) {
	client, err := NewClient("http://shipping.test")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.CalculateShipping(context.Background(), uuid.New(), "teleport")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected missing base url to fail")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
