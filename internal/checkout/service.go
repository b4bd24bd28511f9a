package checkout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/internal/checkout/helpers"
	"github.com/angelmondragon/practicerx-backend/internal/orders"
	"github.com/angelmondragon/practicerx-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
	"github.com/angelmondragon/practicerx-backend/pkg/logger"
	"github.com/angelmondragon/practicerx-backend/pkg/metrics"
)

// Service places orders from a cart.
type Service interface {
	PlaceOrder(ctx context.Context, caller CallerContext, input PlaceOrderInput) (*Result, error)
}

// ServiceParams groups the checkout collaborators.
type ServiceParams struct {
	Carts     cartService
	Practices contextResolver
	Payments  paymentService
	Shipping  shippingQuoter
	Orders    orderWriter
	Pharmacy  pharmacySubmitter
	Discounts discountRecorder
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
	Config    config.CheckoutConfig
}

type service struct {
	carts     cartService
	practices contextResolver
	payments  paymentService
	shipping  shippingQuoter
	orders    orderWriter
	pharmacy  pharmacySubmitter
	discounts discountRecorder
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	cfg       config.CheckoutConfig
	now       func() time.Time
}

// NewService builds the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Carts == nil:
		return nil, fmt.Errorf("cart service required")
	case params.Practices == nil:
		return nil, fmt.Errorf("practice resolver required")
	case params.Payments == nil:
		return nil, fmt.Errorf("payment service required")
	case params.Shipping == nil:
		return nil, fmt.Errorf("shipping quoter required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders service required")
	case params.Pharmacy == nil:
		return nil, fmt.Errorf("pharmacy submitter required")
	case params.Discounts == nil:
		return nil, fmt.Errorf("discount recorder required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	cfg := params.Config
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.ShippingTimeout <= 0 {
		cfg.ShippingTimeout = 10 * time.Second
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 30 * time.Second
	}
	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = 5 * time.Second
	}
	// the claim is refreshed before each charge, so it must outlive one charge plus its pharmacy submission
	if cfg.CartClaimTTL > 0 && cfg.CartClaimTTL <= cfg.PaymentTimeout+cfg.SideEffectTimeout {
		return nil, fmt.Errorf("cart claim ttl %s must exceed payment timeout plus side effect timeout", cfg.CartClaimTTL)
	}
	return &service{
		carts:     params.Carts,
		practices: params.Practices,
		payments:  params.Payments,
		shipping:  params.Shipping,
		orders:    params.Orders,
		pharmacy:  params.Pharmacy,
		discounts: params.Discounts,
		metrics:   params.Metrics,
		logg:      params.Logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// PlaceOrder turns every line of the caller's cart into its own order, charges each order, and
// reports per-order outcomes. Errors are returned only while nothing has been persisted.
func (s *service) PlaceOrder(ctx context.Context, caller CallerContext, input PlaceOrderInput) (result *Result, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveRequest(outcomeFor(result, err), time.Since(started))
	}()

	if caller.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
	}
	feePct := s.cfg.DefaultMerchantFee()
	if input.MerchantFeePercentage != nil {
		feePct = *input.MerchantFeePercentage
	}
	if err := helpers.ValidatePercentage("discount_percentage", input.DiscountPercentage); err != nil {
		return nil, err
	}
	if err := helpers.ValidatePercentage("merchant_fee_percentage", feePct); err != nil {
		return nil, err
	}

	ctx = s.logg.WithCartID(ctx, input.CartID.String())

	if _, err := s.carts.LoadForCheckout(ctx, input.CartID, caller.UserID); err != nil {
		return nil, err
	}
	checkoutID := uuid.New()
	ctx = s.logg.WithCheckoutID(ctx, checkoutID.String())
	if err := s.carts.Claim(ctx, input.CartID, caller.UserID, checkoutID); err != nil {
		return nil, err
	}
	defer s.releaseCart(ctx, input.CartID, checkoutID)

	cart, err := s.carts.LoadForCheckout(ctx, input.CartID, caller.UserID)
	if err != nil {
		return nil, err
	}
	for _, line := range cart.Lines {
		if err := helpers.ValidateLine(line); err != nil {
			return nil, err
		}
	}

	practice := s.practices.Resolve(ctx, caller.UserID, caller.Role)
	method, err := s.payments.ResolveMethod(ctx, input.PaymentMethodID, practice.PracticeID, caller.UserID)
	if err != nil {
		return nil, err
	}

	practiceLines, patientLines := helpers.PartitionLines(cart.Lines)
	practiceGroups := helpers.GroupForShipping(practiceLines)
	patientGroups := helpers.GroupForShipping(patientLines)
	if err := s.priceShipping(ctx, append(append([]*helpers.ShippingGroup{}, practiceGroups...), patientGroups...)); err != nil {
		return nil, err
	}

	plan := draftPlan{
		checkoutID:  checkoutID,
		caller:      caller,
		practice:    practice,
		method:      method,
		discountPct: input.DiscountPercentage,
		feePct:      feePct,
		code:        normalizeCode(input.DiscountCode),
		now:         s.now(),
	}
	drafts := make([]orders.Draft, 0, len(cart.Lines))
	drafts = append(drafts, plan.build(practiceLines, allocations(practiceGroups))...)
	drafts = append(drafts, plan.build(patientLines, allocations(patientGroups))...)

	created, err := s.orders.Persist(ctx, drafts)
	if err != nil {
		return nil, err
	}
	s.metrics.AddOrdersCreated(len(created))
	s.logg.Info(s.logg.WithField(ctx, "order_count", len(created)), "checkout orders created")

	// settlement must finish once orders exist, even if the client goes away
	settleCtx := context.WithoutCancel(ctx)
	settled := s.settle(settleCtx, input.CartID, checkoutID, created)

	if len(settled.failedPayments) == 0 {
		s.afterFullSuccess(settleCtx, caller, input.CartID, plan.code, created)
	}

	result = &Result{
		Success:              len(settled.failedPayments) == 0,
		CheckoutID:           checkoutID,
		CreatedOrders:        make([]orders.OrderDTO, 0, len(created)),
		FailedPayments:       settled.failedPayments,
		FailedOrders:         settled.failedOrders,
		ExecutionTimeSeconds: time.Since(started).Seconds(),
	}
	for _, order := range created {
		result.CreatedOrders = append(result.CreatedOrders, orders.NewOrderDTO(order))
	}
	return result, nil
}

func (s *service) releaseCart(ctx context.Context, cartID, claimID uuid.UUID) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SideEffectTimeout)
	defer cancel()
	if err := s.carts.Release(releaseCtx, cartID, claimID); err != nil {
		s.logg.Error(ctx, "release cart claim failed", err)
	}
}

func allocations(groups []*helpers.ShippingGroup) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, group := range groups {
		for id, amount := range group.Allocate() {
			out[id] = amount
		}
	}
	return out
}

func outcomeFor(result *Result, err error) string {
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && pkgerrors.MetadataFor(typed.Code()).HTTPStatus < http.StatusInternalServerError {
			return metrics.OutcomeRejected
		}
		return metrics.OutcomeError
	}
	if result != nil && !result.Success {
		return metrics.OutcomePartialFailure
	}
	return metrics.OutcomeSucceeded
}
