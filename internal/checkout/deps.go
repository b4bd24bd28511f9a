package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/internal/orders"
	"github.com/angelmondragon/practicerx-backend/internal/payments"
	"github.com/angelmondragon/practicerx-backend/internal/pharmacy"
	"github.com/angelmondragon/practicerx-backend/internal/practices"
	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
)

type cartService interface {
	LoadForCheckout(ctx context.Context, cartID, callerID uuid.UUID) (*models.Cart, error)
	Claim(ctx context.Context, cartID, callerID, claimID uuid.UUID) error
	KeepClaim(ctx context.Context, cartID, claimID uuid.UUID) error
	Release(ctx context.Context, cartID, claimID uuid.UUID) error
	ClearLines(ctx context.Context, cartID uuid.UUID) error
}

type contextResolver interface {
	Resolve(ctx context.Context, callerID uuid.UUID, role enums.UserRole) practices.Context
}

type paymentService interface {
	ResolveMethod(ctx context.Context, methodID, practiceID, callerID uuid.UUID) (*models.PaymentMethod, error)
	Charge(ctx context.Context, req payments.ChargeRequest) (*payments.ChargeResult, error)
}

type shippingQuoter interface {
	CalculateShipping(ctx context.Context, pharmacyID uuid.UUID, speed enums.ShippingSpeed) (decimal.Decimal, error)
}

type orderWriter interface {
	Persist(ctx context.Context, drafts []orders.Draft) ([]models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, reference *string) error
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, reason string) error
}

type pharmacySubmitter interface {
	Submit(ctx context.Context, sub pharmacy.Submission) (string, error)
}

type discountRecorder interface {
	IncrementUsage(ctx context.Context, code string, userID, orderID uuid.UUID) error
}
