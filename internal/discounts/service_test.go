package discounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/practicerx-backend/pkg/db"
	"github.com/angelmondragon/practicerx-backend/pkg/db/dbtest"
	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
)

func TestIncrementUsage(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn))
	require.NoError(t, err)

	code := &models.DiscountCode{Code: "SPRING10", Percentage: decimal.NewFromInt(10), Active: true}
	require.NoError(t, conn.Create(code).Error)

	userID := uuid.New()
	orderID := uuid.New()
	require.NoError(t, svc.IncrementUsage(context.Background(), "spring10", userID, orderID))

	var reloaded models.DiscountCode
	require.NoError(t, conn.First(&reloaded, "id = ?", code.ID).Error)
	assert.Equal(t, 1, reloaded.TimesUsed)

	var usages []models.DiscountCodeUsage
	require.NoError(t, conn.Where("discount_code_id = ?", code.ID).Find(&usages).Error)
	require.Len(t, usages, 1)
	assert.Equal(t, userID, usages[0].UserID)
	assert.Equal(t, orderID, usages[0].OrderID)
}

func TestIncrementUsageUnknownCode(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn))
	require.NoError(t, err)

	err = svc.IncrementUsage(context.Background(), "NOPE", uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestIncrementUsageRequiresCode(t *testing.T) {
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn))
	require.NoError(t, err)

	err = svc.IncrementUsage(context.Background(), "  ", uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
