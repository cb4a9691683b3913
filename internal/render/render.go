// Package render turns dialogue replies into concrete WhatsApp messages.
// The dialogue layer describes WHAT to say; this package decides which
// message shape (text, buttons, list, image) carries it.
package render

import (
	"context"
	"fmt"
	"os"

	"github.com/smartsalon/salon-booking-bot/internal/catalog"
	"github.com/smartsalon/salon-booking-bot/internal/dialogue"
	"github.com/smartsalon/salon-booking-bot/internal/whatsapp"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

// Sender is the outbound message surface the renderer draws on.
type Sender interface {
	SendText(ctx context.Context, to, text string) (*whatsapp.SendResponse, error)
	SendButtons(ctx context.Context, to, text string, buttons []whatsapp.Button) (*whatsapp.SendResponse, error)
	SendList(ctx context.Context, to, header, body, buttonLabel string, sections []whatsapp.ListSection) (*whatsapp.SendResponse, error)
	SendImage(ctx context.Context, to string, data []byte, mimeType, caption string) (*whatsapp.SendResponse, error)
}

var menuButtons = []whatsapp.Button{
	{ID: "new_booking", Title: "📅 New Booking"},
	{ID: "my_bookings", Title: "📋 My Bookings"},
	{ID: "contact_us", Title: "📞 Contact Us"},
}

var confirmButtons = []whatsapp.Button{
	{ID: "confirm_now", Title: "✅ Confirm Now"},
	{ID: "cancel_booking", Title: "❌ Cancel"},
}

var proceedButtons = []whatsapp.Button{
	{ID: "proceed_payment", Title: "💳 Proceed to Payment"},
	{ID: "cancel_booking", Title: "❌ Cancel"},
}

var paidButtons = []whatsapp.Button{
	{ID: "i_have_paid", Title: "✅ I Have Paid"},
	{ID: "back", Title: "🔙 Back"},
}

// Renderer sends dialogue replies to a caller over WhatsApp.
type Renderer struct {
	sender   Sender
	catalog  *catalog.Catalog
	logger   *logging.Logger
	readFile func(string) ([]byte, error)
}

// New builds a renderer. The payment QR image is read from the catalog's
// configured path at send time.
func New(sender Sender, cat *catalog.Catalog, logger *logging.Logger) *Renderer {
	if sender == nil {
		panic("render: sender required")
	}
	if cat == nil {
		panic("render: catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Renderer{sender: sender, catalog: cat, logger: logger, readFile: os.ReadFile}
}

// Render delivers one reply. A zero reply sends nothing.
func (r *Renderer) Render(ctx context.Context, to string, reply dialogue.Reply) error {
	if reply.IsZero() {
		return nil
	}

	switch reply.Kind {
	case dialogue.ReplyMenu:
		_, err := r.sender.SendButtons(ctx, to, reply.Text, menuButtons)
		return err

	case dialogue.ReplyDateList:
		rows := make([]whatsapp.ListRow, 0, len(reply.Dates))
		for _, d := range reply.Dates {
			rows = append(rows, whatsapp.ListRow{ID: d.Value, Title: d.Label})
		}
		sections := []whatsapp.ListSection{{Title: "Available Dates", Rows: rows}}
		_, err := r.sender.SendList(ctx, to, "📅 Select Date", reply.Text, "View Dates", sections)
		return err

	case dialogue.ReplyConfirm:
		_, err := r.sender.SendButtons(ctx, to, reply.Text, confirmButtons)
		return err

	case dialogue.ReplyProceedPayment:
		_, err := r.sender.SendButtons(ctx, to, reply.Text, proceedButtons)
		return err

	case dialogue.ReplyPaymentQR:
		return r.renderPaymentQR(ctx, to, reply.AdvanceDue)

	default:
		_, err := r.sender.SendText(ctx, to, reply.Text)
		return err
	}
}

// renderPaymentQR sends the payment QR image with instructions, then the
// paid/back buttons. A missing QR file degrades to a text fallback with the
// UPI id so payment is still possible.
func (r *Renderer) renderPaymentQR(ctx context.Context, to string, advanceDue int) error {
	caption := paymentCaption(r.catalog, advanceDue)

	data, err := r.readFile(r.catalog.Salon.QRCodePath)
	if err != nil {
		r.logger.Warn("payment QR image unavailable, sending text fallback",
			"path", r.catalog.Salon.QRCodePath, "error", err)
		if _, err := r.sender.SendText(ctx, to, caption); err != nil {
			return err
		}
	} else {
		if _, err := r.sender.SendImage(ctx, to, data, "image/png", caption); err != nil {
			return err
		}
	}

	_, err = r.sender.SendButtons(ctx, to, "After paying, tap below:", paidButtons)
	return err
}

func paymentCaption(c *catalog.Catalog, advanceDue int) string {
	return fmt.Sprintf("💳 *Payment Details*\n\n"+
		"*Amount to Pay:* ₹%d\n"+
		"*UPI ID:* %s\n\n"+
		"Scan the QR code or pay via UPI, then send us the payment screenshot. 📸",
		advanceDue, c.Salon.UPIID)
}
