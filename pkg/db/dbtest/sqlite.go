// Package dbtest opens isolated in-memory sqlite databases carrying the checkout schema.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL,
  practice_id TEXT,
  shipping_address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE providers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  practice_id TEXT NOT NULL,
  npi TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  checkout_started_at DATETIME,
  claim_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE cart_lines (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_snapshot TEXT NOT NULL,
  shipping_speed TEXT NOT NULL,
  patient_id TEXT,
  patient_name TEXT,
  patient_email TEXT,
  patient_phone TEXT,
  patient_address TEXT,
  prescription_url TEXT,
  prescription_method TEXT,
  refills_total INTEGER NOT NULL DEFAULT 0,
  destination_state TEXT,
  provider_id TEXT,
  pharmacy_id TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE payment_methods (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'card',
  square_customer_id TEXT NOT NULL,
  square_card_id TEXT NOT NULL UNIQUE,
  card_brand TEXT,
  card_last4 TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  checkout_id TEXT NOT NULL,
  source_cart_line_id TEXT NOT NULL,
  order_number TEXT NOT NULL UNIQUE,
  doctor_id TEXT NOT NULL,
  placed_by_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  ship_to TEXT NOT NULL,
  shipping_address TEXT,
  subtotal_before_discount TEXT NOT NULL,
  discount_code TEXT,
  discount_percentage TEXT NOT NULL DEFAULT '0',
  discount_amount TEXT NOT NULL DEFAULT '0',
  shipping_total TEXT NOT NULL DEFAULT '0',
  merchant_fee_percentage TEXT NOT NULL DEFAULT '0',
  merchant_fee_amount TEXT NOT NULL DEFAULT '0',
  total_amount TEXT NOT NULL,
  payment_method_id TEXT NOT NULL,
  payment_method_type TEXT NOT NULL,
  payment_reference TEXT,
  payment_error TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (checkout_id, source_cart_line_id)
);`,
	`CREATE TABLE order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_before_discount TEXT NOT NULL,
  discounted_price TEXT NOT NULL,
  discount_amount TEXT NOT NULL DEFAULT '0',
  shipping_cost TEXT NOT NULL DEFAULT '0',
  shipping_speed TEXT NOT NULL,
  patient_id TEXT,
  patient_name TEXT,
  patient_email TEXT,
  patient_phone TEXT,
  patient_address TEXT,
  prescription_url TEXT,
  prescription_method TEXT,
  refills_total INTEGER NOT NULL DEFAULT 0,
  refills_remaining INTEGER NOT NULL DEFAULT 0,
  destination_state TEXT,
  provider_id TEXT,
  pharmacy_id TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE discount_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  percentage TEXT NOT NULL,
  max_uses INTEGER,
  times_used INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE discount_code_usages (
  id TEXT PRIMARY KEY,
  discount_code_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  created_at DATETIME
);`,
}

// New returns a fresh database private to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// shared-cache memory databases vanish when the last connection closes
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}
