package discounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records discount code usage.
type Service interface {
	IncrementUsage(ctx context.Context, code string, userID, orderID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the discount service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// IncrementUsage bumps times_used and records who redeemed the code, in one transaction.
func (s *service) IncrementUsage(ctx context.Context, code string, userID, orderID uuid.UUID) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByCode(ctx, code)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load discount code")
		}
		if record == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		if err := repo.IncrementTimesUsed(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "increment discount usage")
		}
		usage := &models.DiscountCodeUsage{
			DiscountCodeID: record.ID,
			UserID:         userID,
			OrderID:        orderID,
		}
		if err := repo.CreateUsage(ctx, usage); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "record discount usage")
		}
		return nil
	})
}
