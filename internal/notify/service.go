package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartsalon/salon-booking-bot/internal/bookings"
	"github.com/smartsalon/salon-booking-bot/internal/catalog"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

// Service emails salon staff about bookings that need manual review.
type Service struct {
	email      EmailSender
	catalog    *catalog.Catalog
	recipients []string
	logger     *logging.Logger
}

// NewService builds the notification service. With no recipients or a nil
// sender it degrades to a no-op.
func NewService(email EmailSender, cat *catalog.Catalog, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, catalog: cat, recipients: recipients, logger: logger}
}

// NotifyPaymentSubmitted alerts staff that a payment screenshot arrived and
// the booking awaits verification. Delivery is best effort per recipient.
func (s *Service) NotifyPaymentSubmitted(ctx context.Context, bk bookings.Booking) {
	if s.email == nil || len(s.recipients) == 0 {
		s.logger.Debug("payment notification skipped, email not configured", "booking_id", bk.ID)
		return
	}

	subject := fmt.Sprintf("Payment review needed: booking #%d", bk.ID)
	body := s.reviewBody(bk)

	for _, to := range s.recipients {
		msg := EmailMessage{To: to, Subject: subject, Body: body}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("payment notification failed", "error", err, "to", to, "booking_id", bk.ID)
		}
	}
}

func (s *Service) reviewBody(bk bookings.Booking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A customer submitted a payment screenshot.\n\n")
	fmt.Fprintf(&b, "Booking ID: %d\n", bk.ID)
	fmt.Fprintf(&b, "Customer: %s (%s)\n", bk.Name, bk.Identity)
	if s.catalog != nil {
		fmt.Fprintf(&b, "Services: %s\n", strings.Join(s.catalog.ServiceNames(bk.Services), ", "))
	} else {
		fmt.Fprintf(&b, "Services: %s\n", strings.Join(bk.Services, ", "))
	}
	fmt.Fprintf(&b, "Date: %s at %s\n", bk.Date, bk.Time)
	fmt.Fprintf(&b, "Total: ₹%d, advance due: ₹%d\n", bk.Total, bk.AdvanceRequired)
	if bk.Screenshot != "" {
		fmt.Fprintf(&b, "Screenshot: %s\n", bk.Screenshot)
	}
	fmt.Fprintf(&b, "\nApprove or reject it in the admin panel.\n")
	return b.String()
}
