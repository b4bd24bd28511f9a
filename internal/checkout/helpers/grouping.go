package helpers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/practicerx-backend/pkg/db/models"
	"github.com/angelmondragon/practicerx-backend/pkg/enums"
)

// ShippingKey identifies one shipment: lines from the same pharmacy at the same speed.
// Lines without a pharmacy share the uuid.Nil key.
type ShippingKey struct {
	PharmacyID uuid.UUID
	Speed      enums.ShippingSpeed
}

// ShippingGroup is a set of lines priced as one shipment.
type ShippingGroup struct {
	Key     ShippingKey
	LineIDs []uuid.UUID
	Cost    decimal.Decimal
}

// KeyFor returns the shipping key of a line.
func KeyFor(line models.CartLine) ShippingKey {
	key := ShippingKey{Speed: line.ShippingSpeed}
	if line.PharmacyID != nil {
		key.PharmacyID = *line.PharmacyID
	}
	return key
}

// GroupForShipping groups lines by shipping key in first-seen order.
func GroupForShipping(lines []models.CartLine) []*ShippingGroup {
	groups := make([]*ShippingGroup, 0)
	index := make(map[ShippingKey]*ShippingGroup)
	for _, line := range lines {
		key := KeyFor(line)
		group, ok := index[key]
		if !ok {
			group = &ShippingGroup{Key: key}
			index[key] = group
			groups = append(groups, group)
		}
		group.LineIDs = append(group.LineIDs, line.ID)
	}
	return groups
}

// Allocate splits the group cost evenly across its lines at cent precision. Leftover cents go
// to the first lines so the allocations always sum to Cost.
func (g *ShippingGroup) Allocate() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(g.LineIDs))
	n := int64(len(g.LineIDs))
	if n == 0 {
		return out
	}
	cost := g.Cost.RoundBank(2)
	share := cost.Div(decimal.NewFromInt(n)).Truncate(2)
	leftover := cost.Sub(share.Mul(decimal.NewFromInt(n)))
	cent := decimal.New(1, -2)
	for _, id := range g.LineIDs {
		alloc := share
		if leftover.GreaterThanOrEqual(cent) {
			alloc = alloc.Add(cent)
			leftover = leftover.Sub(cent)
		}
		out[id] = alloc
	}
	return out
}
