package discounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
)

// Repository persists discount code redemptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	IncrementTimesUsed(ctx context.Context, id uuid.UUID) error
	CreateUsage(ctx context.Context, usage *models.DiscountCodeUsage) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the discount repository to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByCode matches codes case-insensitively. A missing code yields nil, nil.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var record models.DiscountCode
	err := r.db.WithContext(ctx).Where("UPPER(code) = UPPER(?)", code).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) IncrementTimesUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"times_used": gorm.Expr("times_used + 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) CreateUsage(ctx context.Context, usage *models.DiscountCodeUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}
