package checkout

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/practicerx-backend/internal/cart"
	"github.com/angelmondragon/practicerx-backend/internal/discounts"
	"github.com/angelmondragon/practicerx-backend/internal/orders"
	"github.com/angelmondragon/practicerx-backend/internal/payments"
	"github.com/angelmondragon/practicerx-backend/internal/practices"
	"github.com/angelmondragon/practicerx-backend/pkg/config"
	"github.com/angelmondragon/practicerx-backend/pkg/db"
	"github.com/angelmondragon/practicerx-backend/pkg/db/dbtest"
	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/practicerx-backend/pkg/errors"
	"github.com/angelmondragon/practicerx-backend/pkg/logger"
	"github.com/angelmondragon/practicerx-backend/pkg/square"
	"github.com/angelmondragon/practicerx-backend/pkg/types"
)

type stack struct {
	conn     *gorm.DB
	svc      Service
	square   *scriptedSquare
	shipping *stubShipping
	doctor   *models.User
	method   *models.PaymentMethod
}

func newStack(t *testing.T) *stack {
	t.Helper()
	conn := dbtest.New(t)
	client := db.NewFromConn(conn)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	cartSvc, err := cart.NewService(cart.NewRepository(conn), time.Minute)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.NewRepository(conn), client)
	require.NoError(t, err)
	resolver, err := practices.NewResolver(practices.NewRepository(conn), logg)
	require.NoError(t, err)
	discountSvc, err := discounts.NewService(discounts.NewRepository(conn), client)
	require.NoError(t, err)
	sqStub := &scriptedSquare{declines: map[int]bool{}}
	shippingStub := &stubShipping{cost: dec("10.00")}
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Methods:      payments.NewRepository(conn),
		SquareClient: sqStub,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Carts:     cartSvc,
		Practices: resolver,
		Payments:  paymentSvc,
		Shipping:  shippingStub,
		Orders:    orderSvc,
		Pharmacy:  &stubPharmacy{},
		Discounts: discountSvc,
		Logger:    logg,
		Config:    config.CheckoutConfig{MerchantFeePercentage: 3.75, Currency: "USD"},
	})
	require.NoError(t, err)

	doctor := &models.User{
		Email: "doctor@example.com", FullName: "Dr Example", Role: enums.UserRoleDoctor,
		ShippingAddress: &types.Address{Line1: "1 Main", City: "Austin", State: "TX", PostalCode: "78701"},
	}
	require.NoError(t, conn.Create(doctor).Error)
	method := &models.PaymentMethod{OwnerID: doctor.ID, Type: enums.PaymentMethodTypeCard, SquareCustomerID: "cust", SquareCardID: "ccof:" + uuid.NewString()}
	require.NoError(t, conn.Create(method).Error)
	code := &models.DiscountCode{Code: "SAVE10", Percentage: dec("10"), Active: true}
	require.NoError(t, conn.Create(code).Error)

	return &stack{conn: conn, svc: svc, square: sqStub, shipping: shippingStub, doctor: doctor, method: method}
}

func (s *stack) seedCart(t *testing.T, owner uuid.UUID, lines int) *models.Cart {
	t.Helper()
	record := &models.Cart{UserID: owner, Status: enums.CartStatusActive}
	require.NoError(t, s.conn.Create(record).Error)
	pharmacyID := uuid.New()
	for i := 0; i < lines; i++ {
		line := &models.CartLine{
			CartID:        record.ID,
			ProductID:     uuid.New(),
			Quantity:      1,
			PriceSnapshot: dec("50.00"),
			ShippingSpeed: enums.ShippingSpeedStandard,
			PharmacyID:    &pharmacyID,
			CreatedAt:     time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.conn.Create(line).Error)
	}
	return record
}

func (s *stack) input(cartID uuid.UUID) PlaceOrderInput {
	code := "SAVE10"
	return PlaceOrderInput{CartID: cartID, PaymentMethodID: s.method.ID, DiscountCode: &code, DiscountPercentage: dec("10")}
}

func (s *stack) count(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.conn.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestCheckoutEndToEndFullSuccess(t *testing.T) {
	s := newStack(t)
	record := s.seedCart(t, s.doctor.ID, 2)
	caller := CallerContext{UserID: s.doctor.ID, Role: enums.UserRoleDoctor}

	res, err := s.svc.PlaceOrder(context.Background(), caller, s.input(record.ID))
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.CreatedOrders, 2)

	// one order and one order line per cart line
	assert.Equal(t, int64(2), s.count(t, &models.Order{}, "checkout_id = ?", res.CheckoutID))
	orderIDs := []uuid.UUID{res.CreatedOrders[0].ID, res.CreatedOrders[1].ID}
	assert.NotEqual(t, orderIDs[0], orderIDs[1])
	assert.Equal(t, int64(2), s.count(t, &models.OrderLine{}, "order_id IN ?", orderIDs))

	var stored []models.Order
	require.NoError(t, s.conn.Where("checkout_id = ?", res.CheckoutID).Find(&stored).Error)
	for _, order := range stored {
		assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
		assert.True(t, order.TotalAmount.Equal(dec("51.88")))
		require.NotNil(t, order.ShippingAddress)
		assert.Equal(t, "1 Main", order.ShippingAddress.Line1)
	}

	assert.Zero(t, s.count(t, &models.CartLine{}, "cart_id = ?", record.ID))
	var code models.DiscountCode
	require.NoError(t, s.conn.First(&code, "code = ?", "SAVE10").Error)
	assert.Equal(t, 1, code.TimesUsed)

	var reloaded models.Cart
	require.NoError(t, s.conn.First(&reloaded, "id = ?", record.ID).Error)
	assert.Equal(t, enums.CartStatusActive, reloaded.Status)

	assert.Equal(t, 2, s.square.calls)
	assert.Equal(t, int64(5188), s.square.lastAmount)
}

func TestCheckoutEndToEndZeroTotalIsPaidWithoutGateway(t *testing.T) {
	s := newStack(t)
	s.shipping.cost = dec("0")
	record := s.seedCart(t, s.doctor.ID, 1)
	caller := CallerContext{UserID: s.doctor.ID, Role: enums.UserRoleDoctor}
	in := PlaceOrderInput{CartID: record.ID, PaymentMethodID: s.method.ID, DiscountPercentage: dec("100")}

	res, err := s.svc.PlaceOrder(context.Background(), caller, in)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.CreatedOrders, 1)

	var stored models.Order
	require.NoError(t, s.conn.First(&stored, "id = ?", res.CreatedOrders[0].ID).Error)
	assert.True(t, stored.TotalAmount.IsZero())
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	assert.Nil(t, stored.PaymentReference)
	assert.Zero(t, s.square.calls)
	assert.Zero(t, s.count(t, &models.CartLine{}, "cart_id = ?", record.ID))
}

func TestCheckoutEndToEndPartialFailure(t *testing.T) {
	s := newStack(t)
	record := s.seedCart(t, s.doctor.ID, 2)
	s.square.declines[1] = true
	caller := CallerContext{UserID: s.doctor.ID, Role: enums.UserRoleDoctor}

	res, err := s.svc.PlaceOrder(context.Background(), caller, s.input(record.ID))
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.FailedOrders, 1)

	var failed, paid models.Order
	require.NoError(t, s.conn.First(&failed, "id = ?", res.FailedOrders[0]).Error)
	assert.Equal(t, enums.PaymentStatusPaymentFailed, failed.PaymentStatus)
	assert.Equal(t, enums.OrderStatusPending, failed.Status)
	require.NoError(t, s.conn.First(&paid, "id = ?", res.CreatedOrders[0].ID).Error)
	assert.Equal(t, enums.PaymentStatusPaid, paid.PaymentStatus)

	assert.Equal(t, int64(2), s.count(t, &models.CartLine{}, "cart_id = ?", record.ID))
	var code models.DiscountCode
	require.NoError(t, s.conn.First(&code, "code = ?", "SAVE10").Error)
	assert.Zero(t, code.TimesUsed)

	var reloaded models.Cart
	require.NoError(t, s.conn.First(&reloaded, "id = ?", record.ID).Error)
	assert.Equal(t, enums.CartStatusActive, reloaded.Status, "claim released so the user can retry")
}

func TestCheckoutEndToEndForeignCart(t *testing.T) {
	s := newStack(t)
	record := s.seedCart(t, uuid.New(), 2)
	caller := CallerContext{UserID: s.doctor.ID, Role: enums.UserRoleDoctor}

	_, err := s.svc.PlaceOrder(context.Background(), caller, s.input(record.ID))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	assert.Equal(t, cart.MsgCartForbidden, typed.Message())
	assert.Zero(t, s.count(t, &models.Order{}, "1 = 1"))
}

func TestCheckoutEndToEndMissingCart(t *testing.T) {
	s := newStack(t)
	caller := CallerContext{UserID: s.doctor.ID, Role: enums.UserRoleDoctor}

	_, err := s.svc.PlaceOrder(context.Background(), caller, s.input(uuid.New()))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, cart.MsgCartNotFound, typed.Message())
	assert.Zero(t, s.count(t, &models.Order{}, "1 = 1"))
}

func TestCheckoutEndToEndConcurrentClaim(t *testing.T) {
	s := newStack(t)
	record := s.seedCart(t, s.doctor.ID, 1)
	now := time.Now().UTC()
	require.NoError(t, s.conn.Model(&models.Cart{}).Where("id = ?", record.ID).Updates(map[string]any{
		"status":              enums.CartStatusCheckingOut,
		"checkout_started_at": now,
		"claim_id":            uuid.New(),
	}).Error)

	caller := CallerContext{UserID: s.doctor.ID, Role: enums.UserRoleDoctor}
	_, err := s.svc.PlaceOrder(context.Background(), caller, s.input(record.ID))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Zero(t, s.count(t, &models.Order{}, "1 = 1"))
}

type scriptedSquare struct {
	declines   map[int]bool
	calls      int
	lastAmount int64
}

func (s *scriptedSquare) CreatePayment(_ context.Context, params square.PaymentCreateParams) (*sq.Payment, error) {
	idx := s.calls
	s.calls++
	s.lastAmount = params.AmountCents
	if s.declines[idx] {
		return nil, errors.New("connection reset by peer")
	}
	id := "pay_" + uuid.NewString()
	status := "COMPLETED"
	return &sq.Payment{ID: &id, Status: &status}, nil
}
