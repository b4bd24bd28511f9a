package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/db"
	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

const (
	MsgCreateOrdersFailed     = "Failed to create orders"
	MsgCreateOrderLinesFailed = "Failed to create order lines"
	MsgDuplicateOrder         = "Order already exists for this checkout"

	// AbandonedReason is stamped on orders the reconcile job gives up on.
	AbandonedReason = "abandoned before payment settlement"
)

// Draft pairs an order with its single line. Order.ID is assigned before insert and
// Line.OrderID is stamped from it, so no ordering of returned rows is relied on.
type Draft struct {
	Order models.Order
	Line  models.OrderLine
}

// Service persists checkout orders and tracks their payment status.
type Service interface {
	Persist(ctx context.Context, drafts []Draft) ([]models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, reference *string) error
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, reason string) error
	ExpireAbandoned(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo: repo,
		tx:   tx,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Persist writes every order in one batch, then every line in a second batch, inside one transaction.
func (s *service) Persist(ctx context.Context, drafts []Draft) ([]models.Order, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	orders := make([]models.Order, len(drafts))
	lines := make([]models.OrderLine, len(drafts))
	for i, draft := range drafts {
		order := draft.Order
		if order.ID == uuid.Nil {
			order.ID = uuid.New()
		}
		order.Lines = nil
		line := draft.Line
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.OrderID = order.ID
		orders[i] = order
		lines[i] = line
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrders(ctx, orders); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, MsgDuplicateOrder)
			}
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, MsgCreateOrdersFailed)
		}
		if err := repo.CreateOrderLines(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, MsgCreateOrderLinesFailed)
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, MsgCreateOrdersFailed)
	}

	linesByOrder := make(map[uuid.UUID]models.OrderLine, len(lines))
	for _, line := range lines {
		linesByOrder[line.OrderID] = line
	}
	for i := range orders {
		if line, ok := linesByOrder[orders[i].ID]; ok {
			orders[i].Lines = []models.OrderLine{line}
		}
	}
	return orders, nil
}

func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID, reference *string) error {
	if err := s.repo.MarkPaid(ctx, orderID, reference, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark order paid")
	}
	return nil
}

func (s *service) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, reason string) error {
	if _, err := s.repo.MarkPaymentFailed(ctx, orderID, reason); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark order payment failed")
	}
	return nil
}

// ExpireAbandoned fails pending orders created before cutoff and returns how many changed.
// One order failing to update does not stop the rest.
func (s *service) ExpireAbandoned(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.FindStalePending(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find stale pending orders")
	}
	var errs error
	expired := 0
	for _, order := range stale {
		changed, err := s.repo.MarkPaymentFailed(ctx, order.ID, AbandonedReason)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		if changed {
			expired++
		}
	}
	if errs != nil {
		return expired, pkgerrors.Wrap(pkgerrors.CodePersistence, errs, "expire abandoned orders")
	}
	return expired, nil
}
