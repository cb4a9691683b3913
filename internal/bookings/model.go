// Package bookings owns the persisted booking records and the finalizer that
// creates them. A record's services, date, time, total, and advance are
// frozen at creation; only status, screenshot, and admin notes may change
// afterward, and only through an administrative decision.
package bookings

import "time"

// Status is a booking's lifecycle state.
type Status string

const (
	StatusConfirmed      Status = "confirmed"
	StatusPaymentPending Status = "payment_pending"
	StatusRejected       Status = "rejected"
	StatusCancelled      Status = "cancelled"
	// StatusPending is a legacy status still present in older rows. It counts
	// as active for slot-collision purposes.
	StatusPending Status = "pending"
)

// ActiveStatuses are the statuses that still occupy their time slot.
func ActiveStatuses() []string {
	return []string{string(StatusConfirmed), string(StatusPaymentPending), string(StatusPending)}
}

// Booking is one confirmed or pending appointment.
type Booking struct {
	ID              int64
	Identity        string
	Name            string // denormalized; renaming the customer later must not rewrite past records
	Services        []string
	Date            string // canonical YYYY-MM-DD
	Time            string // one of the catalog's slot labels
	Total           int
	AdvanceRequired int
	Status          Status
	Screenshot      string
	AdminNotes      string
	CreatedAt       time.Time
}
