package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
)

// Repository defines the cart persistence needed by checkout.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindWithLines(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	Claim(ctx context.Context, cartID, userID, claimID uuid.UUID, now, staleBefore time.Time) (bool, error)
	Refresh(ctx context.Context, cartID, claimID uuid.UUID, now time.Time) (bool, error)
	Release(ctx context.Context, cartID, claimID uuid.UUID) (bool, error)
	DeleteLines(ctx context.Context, cartID uuid.UUID) (int64, error)
	ReleaseStale(ctx context.Context, staleBefore time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the cart repository to the provided GORM handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindWithLines returns the cart with its lines, or nil when it does not exist.
func (r *repository) FindWithLines(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", cartID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Claim flips an owned cart into checking_out under claimID. A claim whose last refresh is
// older than staleBefore may be re-taken.
func (r *repository) Claim(ctx context.Context, cartID, userID, claimID uuid.UUID, now, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND user_id = ?", cartID, userID).
		Where(
			"status = ? OR (status = ? AND (checkout_started_at IS NULL OR checkout_started_at < ?))",
			enums.CartStatusActive, enums.CartStatusCheckingOut, staleBefore,
		).
		Updates(map[string]any{
			"status":              enums.CartStatusCheckingOut,
			"claim_id":            claimID,
			"checkout_started_at": now,
			"updated_at":          now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Refresh moves the claim's timestamp to now. It reports false when claimID no longer holds the cart.
func (r *repository) Refresh(ctx context.Context, cartID, claimID uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ? AND claim_id = ?", cartID, enums.CartStatusCheckingOut, claimID).
		Updates(map[string]any{
			"checkout_started_at": now,
			"updated_at":          now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release returns the cart to active, but only while claimID still holds it.
func (r *repository) Release(ctx context.Context, cartID, claimID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND claim_id = ?", cartID, claimID).
		Updates(map[string]any{
			"status":              enums.CartStatusActive,
			"claim_id":            nil,
			"checkout_started_at": nil,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DeleteLines(ctx context.Context, cartID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// ReleaseStale returns carts whose claim predates staleBefore to active.
func (r *repository) ReleaseStale(ctx context.Context, staleBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("status = ? AND (checkout_started_at IS NULL OR checkout_started_at < ?)", enums.CartStatusCheckingOut, staleBefore).
		Updates(map[string]any{
			"status":              enums.CartStatusActive,
			"claim_id":            nil,
			"checkout_started_at": nil,
			"updated_at":          time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
