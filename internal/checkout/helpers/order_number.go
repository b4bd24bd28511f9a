package helpers

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber returns a human-facing order number such as RX261018-3F9A0C.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "RX" + now.UTC().Format("060102") + "-" + suffix
}
