package practices

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	"github.com/angelmondragon/practicerx-backend/pkg/logger"
	"github.com/angelmondragon/practicerx-backend/pkg/types"
)

type store interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindProviderByUser(ctx context.Context, userID uuid.UUID) (*models.Provider, error)
}

// Context is the billing context a checkout runs under.
type Context struct {
	PracticeID       uuid.UUID
	Role             enums.UserRole
	ProviderOverride *uuid.UUID
	PracticeAddress  *types.Address
}

// ProviderFor returns the provider to stamp on an order line.
func (c Context) ProviderFor(lineProvider *uuid.UUID) *uuid.UUID {
	if c.ProviderOverride != nil {
		id := *c.ProviderOverride
		return &id
	}
	return lineProvider
}

// Resolver derives the practice context for a caller. Missing records degrade to defaults.
type Resolver struct {
	store  store
	logger *logger.Logger
}

// NewResolver wires the resolver.
func NewResolver(st store, logg *logger.Logger) (*Resolver, error) {
	if st == nil {
		return nil, fmt.Errorf("practice store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{store: st, logger: logg}, nil
}

func (r *Resolver) Resolve(ctx context.Context, callerID uuid.UUID, callerRole enums.UserRole) Context {
	out := Context{PracticeID: callerID, Role: callerRole}

	user, err := r.store.FindUser(ctx, callerID)
	if err != nil {
		r.warn(ctx, "load caller failed", err)
	}
	if user != nil && user.Role.IsValid() {
		out.Role = user.Role
	}

	if out.Role.ActsForPractice() {
		if user != nil && user.PracticeID != nil && *user.PracticeID != uuid.Nil {
			out.PracticeID = *user.PracticeID
		} else {
			r.logger.Warn(ctx, "practice link missing, billing caller directly")
		}
	}

	if out.Role == enums.UserRoleStaff {
		provider, err := r.store.FindProviderByUser(ctx, callerID)
		if err != nil {
			r.warn(ctx, "load staff provider failed", err)
		}
		if provider != nil {
			id := provider.ID
			out.ProviderOverride = &id
		}
	}

	practice := user
	if out.PracticeID != callerID {
		practice, err = r.store.FindUser(ctx, out.PracticeID)
		if err != nil {
			r.warn(ctx, "load practice failed", err)
		}
	}
	if practice != nil && practice.ShippingAddress != nil {
		addr := practice.ShippingAddress.Normalized()
		out.PracticeAddress = &addr
	}

	return out
}

func (r *Resolver) warn(ctx context.Context, msg string, err error) {
	r.logger.Warn(r.logger.WithField(ctx, "error", err.Error()), msg)
}
