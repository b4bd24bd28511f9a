package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrders(ctx context.Context, orders []models.Order) error
	CreateOrderLines(ctx context.Context, lines []models.OrderLine) error
	FindByCheckout(ctx context.Context, checkoutID uuid.UUID) ([]models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, reference *string, paidAt time.Time) error
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, reason string) (bool, error)
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
