package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

const (
	MsgCartNotFound       = "Cart not found or empty"
	MsgCartForbidden      = "Unauthorized access to cart"
	MsgCheckoutInProgress = "Cart checkout already in progress"
	MsgClaimLost          = "Cart checkout claim lost"

	defaultClaimTTL = 5 * time.Minute
)

// Service loads carts for checkout and guards them against concurrent checkouts.
type Service interface {
	LoadForCheckout(ctx context.Context, cartID, callerID uuid.UUID) (*models.Cart, error)
	Claim(ctx context.Context, cartID, callerID, claimID uuid.UUID) error
	KeepClaim(ctx context.Context, cartID, claimID uuid.UUID) error
	Release(ctx context.Context, cartID, claimID uuid.UUID) error
	ClearLines(ctx context.Context, cartID uuid.UUID) error
	ReleaseAbandonedClaims(ctx context.Context) (int64, error)
}

type service struct {
	repo     Repository
	claimTTL time.Duration
	now      func() time.Time
}

// NewService builds the cart service.
func NewService(repo Repository, claimTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if claimTTL <= 0 {
		claimTTL = defaultClaimTTL
	}
	return &service{
		repo:     repo,
		claimTTL: claimTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// LoadForCheckout returns the caller's cart with all lines. Missing or empty carts are
// rejected before ownership is considered.
func (s *service) LoadForCheckout(ctx context.Context, cartID, callerID uuid.UUID) (*models.Cart, error) {
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MsgCartNotFound)
	}
	record, err := s.repo.FindWithLines(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if record == nil || len(record.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, MsgCartNotFound)
	}
	if record.UserID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, MsgCartForbidden)
	}
	return record, nil
}

// Claim marks the cart as being checked out by claimID. Only one live claim may exist.
func (s *service) Claim(ctx context.Context, cartID, callerID, claimID uuid.UUID) error {
	now := s.now()
	ok, err := s.repo.Claim(ctx, cartID, callerID, claimID, now, now.Add(-s.claimTTL))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim cart")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, MsgCheckoutInProgress)
	}
	return nil
}

// KeepClaim refreshes a held claim so it does not go stale mid-checkout.
func (s *service) KeepClaim(ctx context.Context, cartID, claimID uuid.UUID) error {
	ok, err := s.repo.Refresh(ctx, cartID, claimID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "refresh cart claim")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, MsgClaimLost)
	}
	return nil
}

// Release frees the cart if claimID still holds it. Releasing someone else's claim is a no-op.
func (s *service) Release(ctx context.Context, cartID, claimID uuid.UUID) error {
	if _, err := s.repo.Release(ctx, cartID, claimID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release cart")
	}
	return nil
}

func (s *service) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.repo.DeleteLines(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart lines")
	}
	return nil
}

// ReleaseAbandonedClaims frees carts left in checking_out past the claim TTL.
func (s *service) ReleaseAbandonedClaims(ctx context.Context) (int64, error) {
	released, err := s.repo.ReleaseStale(ctx, s.now().Add(-s.claimTTL))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release abandoned cart claims")
	}
	return released, nil
}
