package dialogue

import (
	"fmt"
	"strings"

	"github.com/smartsalon/salon-booking-bot/internal/bookings"
	"github.com/smartsalon/salon-booking-bot/internal/catalog"
	"github.com/smartsalon/salon-booking-bot/internal/session"
)

// Reply text builders. WhatsApp renders *bold* markup natively, so the
// asterisks here are intentional.

func greetingText(salonName, customerName string) string {
	var b strings.Builder
	if customerName != "" {
		fmt.Fprintf(&b, "👋 Welcome back *%s*!\n\n", customerName)
	} else {
		fmt.Fprintf(&b, "👋 Welcome to *%s*!\n\n", salonName)
	}
	b.WriteString("How can I help you today?")
	return b.String()
}

func serviceListText(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("*📋 Our Services:*\n\n")
	for _, svc := range c.Services {
		fmt.Fprintf(&b, "%s. %s\n", svc.ID, svc.Name)
		fmt.Fprintf(&b, "   💰 ₹%d | ⏱️ %s\n\n", svc.Price, svc.Duration)
	}
	return b.String()
}

func selectionInstructionsText(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString(serviceListText(c))
	b.WriteString("📝 *How to select:*\n")
	b.WriteString("Reply with service numbers separated by commas\n")
	b.WriteString("Example: 1,3,5\n\n")
	b.WriteString("Type *Menu* to cancel")
	return b.String()
}

func invalidServicesText(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("❌ *Invalid format!*\n\n")
	b.WriteString("Please enter service numbers separated by commas.\n")
	b.WriteString("Example: 1,3,5\n\n")
	b.WriteString(serviceListText(c))
	b.WriteString("Or type *Menu* to cancel")
	return b.String()
}

func servicesSelectedText(c *catalog.Catalog, d session.Draft) string {
	var b strings.Builder
	b.WriteString("✅ *Selected Services:*\n\n")
	for i, id := range d.Services {
		svc, _ := c.Service(id)
		fmt.Fprintf(&b, "%d. %s\n", i+1, svc.Name)
		fmt.Fprintf(&b, "   💰 ₹%d | ⏱️ %s\n\n", svc.Price, svc.Duration)
	}
	fmt.Fprintf(&b, "*Total Amount:* ₹%d\n\n", d.Total)
	if d.AdvanceRequired > 0 {
		pct := int(c.AdvancePercentage * 100)
		fmt.Fprintf(&b, "💳 *Advance Payment Required:* ₹%d (%d%%)\n\n", d.AdvanceRequired, pct)
	}
	b.WriteString("📅 *Select your preferred date:*")
	return b.String()
}

func slotListText(date string, slots []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 *Date:* %s\n\n", date)
	b.WriteString("*⏰ Available Time Slots:*\n\n")
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, slot)
	}
	fmt.Fprintf(&b, "\n💡 Reply with slot number (1-%d)\n", len(slots))
	b.WriteString("Or type *Back* to change date")
	return b.String()
}

func bookingSummaryText(c *catalog.Catalog, d session.Draft) string {
	var b strings.Builder
	b.WriteString("*📋 Booking Summary:*\n\n")
	fmt.Fprintf(&b, "👤 *Name:* %s\n", d.Name)
	fmt.Fprintf(&b, "📅 *Date:* %s\n", d.DateLabel)
	fmt.Fprintf(&b, "⏰ *Time:* %s\n\n", d.Time)
	b.WriteString("*Services:*\n")
	for _, id := range d.Services {
		svc, _ := c.Service(id)
		fmt.Fprintf(&b, "• %s - ₹%d\n", svc.Name, svc.Price)
	}
	fmt.Fprintf(&b, "\n💰 *Total:* ₹%d\n\n", d.Total)
	if d.AdvanceRequired > 0 {
		fmt.Fprintf(&b, "💳 *Advance Required:* ₹%d\n\n", d.AdvanceRequired)
		b.WriteString("Tap *Proceed to Payment* to continue")
	} else {
		b.WriteString("✅ No advance payment required!\n\n")
		b.WriteString("Tap *Confirm Now* to book your appointment")
	}
	return b.String()
}

func bookingConfirmedText(c *catalog.Catalog, d session.Draft, bookingID int64) string {
	var b strings.Builder
	b.WriteString("🎉 *Booking Confirmed!*\n\n")
	fmt.Fprintf(&b, "*Booking ID:* #%d\n", bookingID)
	fmt.Fprintf(&b, "*Name:* %s\n", d.Name)
	fmt.Fprintf(&b, "*Date:* %s\n", d.Date)
	fmt.Fprintf(&b, "*Time:* %s\n", d.Time)
	fmt.Fprintf(&b, "*Services:* %s\n", strings.Join(c.ServiceNames(d.Services), ", "))
	fmt.Fprintf(&b, "*Total:* ₹%d\n\n", d.Total)
	fmt.Fprintf(&b, "✨ See you at *%s*!\n\n", c.Salon.Name)
	fmt.Fprintf(&b, "📍 %s\n", c.Salon.Address)
	fmt.Fprintf(&b, "📞 %s\n\n", c.Salon.Phone)
	b.WriteString("Type *Menu* for more options")
	return b.String()
}

func screenshotReceivedText(bookingID int64) string {
	var b strings.Builder
	b.WriteString("✅ *Payment Screenshot Received!*\n\n")
	fmt.Fprintf(&b, "*Booking ID:* #%d\n\n", bookingID)
	b.WriteString("🔍 *Under Review*\n")
	b.WriteString("Our team will verify your payment and confirm within *1 hour*.\n\n")
	b.WriteString("You'll receive a confirmation message once approved. 🎉\n\n")
	b.WriteString("Type *Menu* for more options")
	return b.String()
}

func myBookingsText(c *catalog.Catalog, list []bookings.Booking, total int) string {
	if len(list) == 0 {
		return "📭 You don't have any bookings yet.\n\n" +
			"Book your first appointment now!\n\nType *Menu* to go back"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*📋 Your Bookings (%d):*\n\n", total)
	for _, bk := range list {
		fmt.Fprintf(&b, "*#%d* - %s at %s\n", bk.ID, bk.Date, bk.Time)
		fmt.Fprintf(&b, "💇 %s\n", strings.Join(c.ServiceNames(bk.Services), ", "))
		fmt.Fprintf(&b, "💰 ₹%d\n", bk.Total)
		fmt.Fprintf(&b, "Status: %s\n\n", statusTitle(bk.Status))
	}
	if total > len(list) {
		fmt.Fprintf(&b, "...and %d more\n\n", total-len(list))
	}
	b.WriteString("Type *Menu* to go back")
	return b.String()
}

func statusTitle(s bookings.Status) string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func contactText(c *catalog.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*📞 Contact %s*\n\n", c.Salon.Name)
	fmt.Fprintf(&b, "📍 *Address:*\n%s\n\n", c.Salon.Address)
	fmt.Fprintf(&b, "📱 *Phone:*\n%s\n\n", c.Salon.Phone)
	fmt.Fprintf(&b, "💳 *UPI ID:*\n%s\n\n", c.Salon.UPIID)
	fmt.Fprintf(&b, "*🕐 Working Hours:*\n%s\n\n", c.Salon.Hours)
	b.WriteString("Type *Menu* to go back")
	return b.String()
}

func fallbackText() string {
	return "❓ I didn't understand that.\n\n" +
		"Type *Menu* to see all options\n" +
		"or choose from:\n" +
		"• *New Booking* - Book appointment\n" +
		"• *My Bookings* - View bookings\n" +
		"• *Contact Us* - Get contact info"
}

const cancelledText = "❌ Booking cancelled.\n\nType *Menu* to start over"

const askNameText = "Please enter your name:"

const invalidNameText = "❌ Please enter a valid name (at least 2 characters):"

const invalidDateText = "❌ Invalid date selected.\n\nPlease select a date from the list."

const noSlotsText = "😔 Sorry! No slots available on this date.\n\nPlease select another date:"

const selectDateText = "📅 *Select your preferred date:*"

const uploadScreenshotText = "📸 *Please upload your payment screenshot*\n\n" +
	"Take a screenshot of your payment confirmation and send it here.\n\n" +
	"We'll verify and confirm your booking within *1 hour*. ⏰"

const awaitingScreenshotText = "📸 Please send the *payment screenshot* as an image.\n\n" +
	"Or type *Cancel* to cancel this booking."

const screenshotRetryText = "❌ Failed to receive image. Please try uploading again."

const confirmPromptText = "Please tap *Confirm Now* or *Cancel*"

const proceedPromptText = "Please tap *Proceed to Payment* or *Cancel*"

const paidPromptText = "Please tap *I Have Paid* after completing payment,\nor tap *Back* to review your booking."
