package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/smartsalon/salon-booking-bot/internal/session"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

// finalizerStore is the write path for new booking rows plus the reads the
// finalizer needs around them.
type finalizerStore interface {
	Insert(ctx context.Context, b Booking) (int64, error)
	AttachScreenshot(ctx context.Context, id int64, ref string) error
	Get(ctx context.Context, id int64) (*Booking, error)
}

// BookingObserver records booking creation, usually a metrics sink.
type BookingObserver interface {
	ObserveBooking(status string)
}

// Finalizer commits a completed draft as a durable booking record. It is the
// only writer of new booking rows; it trusts the dialogue engine's validation
// and re-checks nothing.
type Finalizer struct {
	repo               finalizerStore
	logger             *logging.Logger
	now                func() time.Time
	observer           BookingObserver
	onPaymentSubmitted func(ctx context.Context, b Booking)
}

// NewFinalizer creates a finalizer over the bookings repository.
func NewFinalizer(repo finalizerStore, logger *logging.Logger) *Finalizer {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Finalizer{repo: repo, logger: logger, now: time.Now}
}

// SetObserver attaches a metrics sink for created bookings.
func (f *Finalizer) SetObserver(o BookingObserver) {
	f.observer = o
}

// OnPaymentSubmitted registers a hook called after a payment screenshot is
// attached to a payment-pending booking.
func (f *Finalizer) OnPaymentSubmitted(fn func(ctx context.Context, b Booking)) {
	f.onPaymentSubmitted = fn
}

// Finalize persists the draft with the given status and returns the new
// booking id. A confirmed-without-payment booking carries advance 0; a
// payment-pending one carries the advance computed at selection time.
func (f *Finalizer) Finalize(ctx context.Context, identity string, d session.Draft, status Status) (int64, error) {
	b := Booking{
		Identity:        identity,
		Name:            d.Name,
		Services:        d.Services,
		Date:            d.Date,
		Time:            d.Time,
		Total:           d.Total,
		AdvanceRequired: d.AdvanceRequired,
		Status:          status,
		CreatedAt:       f.now().UTC(),
	}
	id, err := f.repo.Insert(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("bookings: finalize for %s: %w", identity, err)
	}
	if f.observer != nil {
		f.observer.ObserveBooking(string(status))
	}
	f.logger.Info("booking created",
		"booking_id", id,
		"identity", identity,
		"date", d.Date,
		"slot", d.Time,
		"total", d.Total,
		"status", string(status),
	)
	return id, nil
}

// AttachScreenshot links payment proof to a booking and fires the payment
// review hook for payment-pending rows.
func (f *Finalizer) AttachScreenshot(ctx context.Context, id int64, ref string) error {
	if err := f.repo.AttachScreenshot(ctx, id, ref); err != nil {
		return err
	}
	if f.onPaymentSubmitted == nil {
		return nil
	}
	bk, err := f.repo.Get(ctx, id)
	if err != nil || bk == nil {
		f.logger.Warn("payment hook skipped, booking not readable", "booking_id", id, "error", err)
		return nil
	}
	if bk.Status == StatusPaymentPending {
		f.onPaymentSubmitted(ctx, *bk)
	}
	return nil
}
