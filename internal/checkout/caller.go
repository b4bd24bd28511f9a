package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/practicerx-backend/pkg/enums"
)

// CallerContext is the authenticated identity a checkout runs for. It is resolved once at the
// HTTP boundary and passed through the pipeline unchanged.
type CallerContext struct {
	UserID uuid.UUID
	Role   enums.UserRole
}
