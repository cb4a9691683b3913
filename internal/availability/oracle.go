// Package availability answers "which time slots are still free on a date".
package availability

import (
	"context"
	"fmt"
)

// BookedSlotSource reports the slot labels occupied by active bookings on a
// date. The bookings repository implements it.
type BookedSlotSource interface {
	BookedSlots(ctx context.Context, date string) ([]string, error)
}

// Oracle subtracts booked slots from the catalog's fixed slot list. It holds
// no locks: two callers may both observe a slot as free and both book it —
// an accepted race reconciled administratively.
type Oracle struct {
	allSlots []string
	booked   BookedSlotSource
}

// NewOracle creates an oracle over the catalog slot list and booking records.
func NewOracle(allSlots []string, booked BookedSlotSource) *Oracle {
	if booked == nil {
		panic("availability: booked slot source required")
	}
	return &Oracle{allSlots: allSlots, booked: booked}
}

// AvailableSlots returns the catalog slots not occupied on the date,
// preserving catalog order.
func (o *Oracle) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	taken, err := o.booked.BookedSlots(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("availability: slots for %s: %w", date, err)
	}
	takenSet := make(map[string]struct{}, len(taken))
	for _, slot := range taken {
		takenSet[slot] = struct{}{}
	}

	free := make([]string, 0, len(o.allSlots))
	for _, slot := range o.allSlots {
		if _, occupied := takenSet[slot]; !occupied {
			free = append(free, slot)
		}
	}
	return free, nil
}
