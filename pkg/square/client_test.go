package square

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

func TestEnsureIdempotencyKey(t *testing.T) {
	c := &Client{}
	// Provided key should be used verbatim.
	if got := c.ensureIdempotencyKey("pref", "custom-key"); got != "custom-key" {
		t.Fatalf("expected provided key, got %q", got)
	}
	// Empty key should be generated and include prefix.
	if got := c.ensureIdempotencyKey("prefix", ""); !strings.HasPrefix(got, "prefix-") {
		t.Fatalf("generated idempotency key %q missing prefix", got)
	}
}

func TestRedact(t *testing.T) {
	c := &Client{}
	out := c.redact("payment_token", "abc123")
	if out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	// Non-sensitive keys should be preserved.
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{http.StatusPaymentRequired, pkgerrors.CodeStateConflict},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestMapSquareError(t *testing.T) {
	c := &Client{}
	table := []struct {
		name     string
		status   int
		payload  string
		wantCode pkgerrors.Code
	}{
		{
			name:     "authentication error",
			status:   http.StatusUnauthorized,
			payload:  `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`,
			wantCode: pkgerrors.CodeUnauthorized,
		},
		{
			name:     "idempotency key reused",
			status:   http.StatusConflict,
			payload:  `{"errors":[{"category":"API_ERROR","code":"IDEMPOTENCY_KEY_REUSED"}]}`,
			wantCode: pkgerrors.CodeIdempotency,
		},
	}
	for _, tt := range table {
		err := sqcore.NewAPIError(tt.status, errors.New(tt.payload))
		mapped := c.mapSquareError(err, "operation")
		if mapped == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		typed := pkgerrors.As(mapped)
		if typed == nil {
			t.Fatalf("%s: result is not pkgerror", tt.name)
		}
		if typed.Code() != tt.wantCode {
			t.Fatalf("%s: expected code %s, got %s", tt.name, tt.wantCode, typed.Code())
		}
	}
}

func TestExtractSquareErrors(t *testing.T) {
	payload := `{"errors":[{"category":"API_ERROR","code":"BAD_REQUEST","detail":"oops"}]}`
	apiErr := sqcore.NewAPIError(http.StatusBadRequest, errors.New(payload))
	got := extractSquareErrors(apiErr)
	if len(got) != 1 {
		t.Fatalf("expected 1 error, got %d", len(got))
	}
	if got[0].GetCode() != sq.ErrorCodeBadRequest {
		t.Fatalf("unexpected error code %s", got[0].GetCode())
	}
}

func TestErrorDetailsThroughWrappedError(t *testing.T) {
	c := &Client{}
	payload := `{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"CARD_DECLINED","detail":"declined"}]}`
	mapped := c.mapSquareError(sqcore.NewAPIError(http.StatusPaymentRequired, errors.New(payload)), "create payment")

	details := ErrorDetails(mapped)
	if len(details) != 1 {
		t.Fatalf("expected 1 square error, got %d", len(details))
	}
	if string(details[0].GetCode()) != "CARD_DECLINED" {
		t.Fatalf("unexpected code %s", details[0].GetCode())
	}
	if ErrorDetails(errors.New("plain")) != nil {
		t.Fatalf("expected nil details for non-square error")
	}
}

func TestPaymentParamsToSquareRequest(t *testing.T) {
	req := PaymentCreateParams{
		AmountCents:    5188,
		Currency:       "usd",
		LocationID:     "loc-1",
		CustomerID:     "cust-1",
		SourceID:       "ccof:card-1",
		IdempotencyKey: "order:abc",
		ReferenceID:    "RX-1",
		Note:           "  ",
	}.toSquareRequest("order:abc")

	if req.IdempotencyKey != "order:abc" {
		t.Fatalf("unexpected idempotency key %q", req.IdempotencyKey)
	}
	if req.AmountMoney == nil || *req.AmountMoney.Amount != 5188 {
		t.Fatalf("unexpected amount %+v", req.AmountMoney)
	}
	if *req.AmountMoney.Currency != sq.Currency("USD") {
		t.Fatalf("expected currency upper-cased")
	}
	if req.Note != nil {
		t.Fatalf("blank note should be omitted")
	}
	if req.ReferenceID == nil || *req.ReferenceID != "RX-1" {
		t.Fatalf("reference id not set")
	}
}

func TestNormalizeEnv(t *testing.T) {
	if env, err := normalizeEnv(""); err != nil || env != sandboxEnv {
		t.Fatalf("expected sandbox default, got %q err=%v", env, err)
	}
	if _, err := normalizeEnv("staging"); err == nil {
		t.Fatal("expected unknown env to fail")
	}
}
