package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}

	cases := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pg any constraint", err: fmt.Errorf("insert: %w", pgErr), want: true},
		{name: "pg matching constraint", err: pgErr, constraint: "orders_order_number_key", want: true},
		{name: "pg other constraint", err: pgErr, constraint: "carts_pkey", want: false},
		{name: "pg other code", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "sqlite text", err: errors.New("UNIQUE constraint failed: orders.order_number"), want: true},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err, tc.constraint); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, got)
		}
	}
}
