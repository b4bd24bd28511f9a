package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
	"github.com/angelmondragon/practicerx-backend/pkg/square"
)

const MsgPaymentMethodNotFound = "Payment method not found"

// Service resolves payment methods and charges orders against them.
type Service interface {
	ResolveMethod(ctx context.Context, methodID, practiceID, callerID uuid.UUID) (*models.PaymentMethod, error)
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// ChargeRequest is one order's charge.
type ChargeRequest struct {
	OrderID         uuid.UUID
	OrderNumber     string
	PaymentMethodID uuid.UUID
	Amount          decimal.Decimal
	Currency        string
}

// ChargeResult reports a gateway outcome. A declined charge is a result, not an error.
type ChargeResult struct {
	Success         bool
	Reference       *string
	Error           string
	GatewayResponse map[string]any
}

// ServiceParams groups dependencies for the payments service.
type ServiceParams struct {
	Methods      methodLoader
	SquareClient paymentCreator
}

type methodLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
}

type paymentCreator interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
}

type service struct {
	methods methodLoader
	square  paymentCreator
}

// NewService constructs the payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Methods == nil {
		return nil, fmt.Errorf("payment method loader required")
	}
	if params.SquareClient == nil {
		return nil, fmt.Errorf("square client required")
	}
	return &service{methods: params.Methods, square: params.SquareClient}, nil
}

// ResolveMethod loads the method and checks it belongs to the practice or the caller.
func (s *service) ResolveMethod(ctx context.Context, methodID, practiceID, callerID uuid.UUID) (*models.PaymentMethod, error) {
	if methodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MsgPaymentMethodNotFound)
	}
	method, err := s.methods.FindByID(ctx, methodID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment method")
	}
	if method == nil || (method.OwnerID != practiceID && method.OwnerID != callerID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MsgPaymentMethodNotFound)
	}
	return method, nil
}

// Charge submits the order total to Square. The idempotency key is derived from the order so a
// retried charge for the same order cannot double-bill. An order totalling zero cents is settled
// without contacting Square and carries no payment reference.
func (s *service) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if req.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must not be negative")
	}
	if toCents(req.Amount) == 0 {
		return &ChargeResult{Success: true, GatewayResponse: map[string]any{"status": "NO_CHARGE"}}, nil
	}

	method, err := s.methods.FindByID(ctx, req.PaymentMethodID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	if method == nil {
		return &ChargeResult{Success: false, Error: MsgPaymentMethodNotFound}, nil
	}

	params := square.PaymentCreateParams{
		AmountCents:    toCents(req.Amount),
		Currency:       req.Currency,
		CustomerID:     strings.TrimSpace(method.SquareCustomerID),
		SourceID:       strings.TrimSpace(method.SquareCardID),
		IdempotencyKey: "order:" + req.OrderID.String(),
		ReferenceID:    req.OrderNumber,
		Note:           fmt.Sprintf("Order %s", req.OrderNumber),
	}

	payment, err := s.square.CreatePayment(ctx, params)
	if err != nil {
		details := square.ErrorDetails(err)
		if len(details) == 0 {
			return nil, err
		}
		return &ChargeResult{
			Success:         false,
			Error:           declineMessage(details),
			GatewayResponse: map[string]any{"errors": gatewayErrors(details)},
		}, nil
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square payment response is nil")
	}

	status := derefString(payment.GetStatus())
	response := map[string]any{
		"payment_id": derefString(payment.GetID()),
		"status":     status,
	}
	if status != "COMPLETED" && status != "APPROVED" {
		return &ChargeResult{
			Success:         false,
			Error:           fmt.Sprintf("payment %s", strings.ToLower(status)),
			GatewayResponse: response,
		}, nil
	}
	return &ChargeResult{
		Success:         true,
		Reference:       payment.GetID(),
		GatewayResponse: response,
	}, nil
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func declineMessage(details []*sq.Error) string {
	for _, d := range details {
		if d == nil {
			continue
		}
		if d.Detail != nil && strings.TrimSpace(*d.Detail) != "" {
			return *d.Detail
		}
		return string(d.Code)
	}
	return "payment declined"
}

func gatewayErrors(details []*sq.Error) []map[string]any {
	out := make([]map[string]any, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		entry := map[string]any{
			"category": string(d.Category),
			"code":     string(d.Code),
		}
		if d.Detail != nil {
			entry["detail"] = *d.Detail
		}
		out = append(out, entry)
	}
	return out
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
