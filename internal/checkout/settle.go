package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/practicerx-backend/internal/payments"
	"github.com/angelmondragon/practicerx-backend/internal/pharmacy"
	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

var errClaimLost = errors.New("checkout claim lost before charge")

type settlement struct {
	failedPayments []FailedPayment
	failedOrders   []uuid.UUID
}

// settle charges each order in turn. A failed charge marks only that order and moves on;
// nothing already charged is reversed. The cart claim is refreshed before every charge, and
// once it is lost no further order is charged.
func (s *service) settle(ctx context.Context, cartID, claimID uuid.UUID, created []models.Order) settlement {
	out := settlement{
		failedPayments: []FailedPayment{},
		failedOrders:   []uuid.UUID{},
	}
	claimLost := false
	for i := range created {
		order := &created[i]
		orderCtx := s.logg.WithOrderID(ctx, order.ID.String())

		if !claimLost {
			claimLost = s.claimLost(orderCtx, cartID, claimID)
		}

		var (
			res *payments.ChargeResult
			err error
		)
		if claimLost {
			err = errClaimLost
		} else {
			res, err = s.charge(orderCtx, order)
		}
		if err != nil || res == nil || !res.Success {
			reason, gateway := failureDetail(res, err)
			s.metrics.IncPaymentFailure()
			s.logg.Error(s.logg.WithField(orderCtx, "order_number", order.OrderNumber), "order payment failed", errors.New(reason))

			if markErr := s.orders.MarkPaymentFailed(orderCtx, order.ID, reason); markErr != nil {
				s.logg.Error(orderCtx, "mark payment failed", markErr)
			}
			order.PaymentStatus = enums.PaymentStatusPaymentFailed
			order.Status = enums.OrderStatusPending
			order.PaymentError = &reason

			out.failedPayments = append(out.failedPayments, FailedPayment{
				OrderID:         order.ID,
				OrderNumber:     order.OrderNumber,
				Success:         false,
				Error:           reason,
				GatewayResponse: gateway,
			})
			out.failedOrders = append(out.failedOrders, order.ID)
			continue
		}

		if markErr := s.orders.MarkPaid(orderCtx, order.ID, res.Reference); markErr != nil {
			// the card was charged; the reconcile job must not fail this order
			s.logg.Error(orderCtx, "mark order paid failed", markErr)
		}
		paidAt := s.now()
		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaymentReference = res.Reference
		order.PaidAt = &paidAt

		s.submitToPharmacy(orderCtx, order)
	}
	return out
}

// claimLost reports whether another checkout now holds the cart. Refresh errors are logged
// and do not stop settlement.
func (s *service) claimLost(ctx context.Context, cartID, claimID uuid.UUID) bool {
	err := s.carts.KeepClaim(ctx, cartID, claimID)
	if err == nil {
		return false
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
		s.logg.Error(ctx, "cart claim lost during settlement", err)
		return true
	}
	s.logg.Error(ctx, "refresh cart claim failed", err)
	return false
}

func (s *service) charge(ctx context.Context, order *models.Order) (*payments.ChargeResult, error) {
	chargeCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()
	return s.payments.Charge(chargeCtx, payments.ChargeRequest{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		PaymentMethodID: order.PaymentMethodID,
		Amount:          order.TotalAmount,
		Currency:        s.cfg.Currency,
	})
}

func (s *service) submitToPharmacy(ctx context.Context, order *models.Order) {
	for _, line := range order.Lines {
		if line.PharmacyID == nil || *line.PharmacyID == uuid.Nil {
			continue
		}
		sub := pharmacy.Submission{OrderID: order.ID, OrderLineID: line.ID, PharmacyID: *line.PharmacyID}
		_ = s.bestEffort(ctx, effectPharmacySubmission, func(ctx context.Context) error {
			_, err := s.pharmacy.Submit(ctx, sub)
			return err
		})
	}
}

func failureDetail(res *payments.ChargeResult, err error) (string, map[string]any) {
	if err != nil {
		return err.Error(), nil
	}
	if res == nil {
		return "payment service returned no result", nil
	}
	reason := res.Error
	if reason == "" {
		reason = "payment failed"
	}
	return reason, res.GatewayResponse
}
