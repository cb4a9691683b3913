package dialogue

// ReplyKind tells the presentation adapter which channel shape a reply
// semantically requires. The engine never builds channel payloads itself.
type ReplyKind string

const (
	// ReplyText is a plain text message.
	ReplyText ReplyKind = "text"
	// ReplyMenu is text plus the three primary action buttons.
	ReplyMenu ReplyKind = "menu"
	// ReplyDateList is text plus a selectable list of the next seven days.
	ReplyDateList ReplyKind = "date_list"
	// ReplyConfirm is text plus Confirm Now / Cancel buttons.
	ReplyConfirm ReplyKind = "confirm"
	// ReplyProceedPayment is text plus Proceed to Payment / Cancel buttons.
	ReplyProceedPayment ReplyKind = "proceed_payment"
	// ReplyPaymentQR is the payment QR image with caption plus
	// I Have Paid / Back buttons. The adapter supplies the instructions.
	ReplyPaymentQR ReplyKind = "payment_qr"
	// ReplyNone means no outbound message at all (e.g. an image received in
	// a state that ignores images).
	ReplyNone ReplyKind = ""
)

// DateOption is one selectable date row: the canonical value and the label
// the customer sees.
type DateOption struct {
	Value string
	Label string
}

// Reply describes what to say, not how to render it on the wire.
type Reply struct {
	Kind ReplyKind
	Text string
	// Dates carries the offered date rows when Kind is ReplyDateList.
	Dates []DateOption
	// AdvanceDue carries the deposit amount when Kind is ReplyPaymentQR.
	AdvanceDue int
}

// IsZero reports whether the reply carries nothing to send.
func (r Reply) IsZero() bool {
	return r.Kind == ReplyNone && r.Text == ""
}
