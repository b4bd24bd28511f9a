package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoggerCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Level: zerolog.InfoLevel, Format: "json", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithCartID(ctx, "cart-1")
	ctx = logg.WithCheckoutID(ctx, "chk-1")
	logg.Info(ctx, "checkout started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "api", entry["service"])
	require.Equal(t, "req-1", entry["request_id"])
	require.Equal(t, "cart-1", entry["cart_id"])
	require.Equal(t, "chk-1", entry["checkout_id"])
	require.Equal(t, "checkout started", entry["message"])
}

func TestLoggerErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Format: "json", Output: &buf})

	logg.Error(context.Background(), "charge failed", errors.New("declined"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "declined", entry["error"])
	require.NotEmpty(t, entry["stack"])
}

func TestLoggerDebugFilteredAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Level: zerolog.InfoLevel, Format: "json", Output: &buf})

	logg.Debug(context.Background(), "noise")
	require.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	require.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}
