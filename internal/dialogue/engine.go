// Package dialogue implements the booking conversation state machine. Each
// turn is a pure computation over (current state, draft, inbound message,
// catalog): it decides the next state, mutates the draft, and describes the
// reply. Rendering and transport live elsewhere.
package dialogue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartsalon/salon-booking-bot/internal/bookings"
	"github.com/smartsalon/salon-booking-bot/internal/catalog"
	"github.com/smartsalon/salon-booking-bot/internal/customers"
	"github.com/smartsalon/salon-booking-bot/internal/session"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

// ProfileStore reads and writes customer profiles.
type ProfileStore interface {
	Get(ctx context.Context, identity string) (*customers.Profile, error)
	Upsert(ctx context.Context, identity, name string) error
}

// BookingReader lists a caller's past bookings for the "My Bookings" summary.
type BookingReader interface {
	List(ctx context.Context, f bookings.Filter) ([]bookings.Booking, error)
	CountByIdentity(ctx context.Context, identity string) (int, error)
}

// SlotOracle reports the free slots for a date.
type SlotOracle interface {
	AvailableSlots(ctx context.Context, date string) ([]string, error)
}

// BookingWriter commits a completed draft and links payment proof to it.
type BookingWriter interface {
	Finalize(ctx context.Context, identity string, d session.Draft, status bookings.Status) (int64, error)
	AttachScreenshot(ctx context.Context, id int64, ref string) error
}

// MediaDownloader fetches an inbound attachment's bytes from the transport.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, error)
}

// ScreenshotStore persists payment proof and returns a stable reference.
type ScreenshotStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// recentBookingsShown caps the "My Bookings" summary length.
const recentBookingsShown = 5

// Engine drives the dialogue. It owns all validation and branching; it never
// talks to the wire and never mutates booking rows directly.
type Engine struct {
	catalog  *catalog.Catalog
	profiles ProfileStore
	history  BookingReader
	oracle   SlotOracle
	writer   BookingWriter
	media    MediaDownloader
	shots    ScreenshotStore
	logger   *logging.Logger
	now      func() time.Time
}

// NewEngine wires the dialogue engine to its collaborators.
func NewEngine(
	cat *catalog.Catalog,
	profiles ProfileStore,
	history BookingReader,
	oracle SlotOracle,
	writer BookingWriter,
	media MediaDownloader,
	shots ScreenshotStore,
	logger *logging.Logger,
) *Engine {
	if cat == nil {
		panic("dialogue: catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		catalog:  cat,
		profiles: profiles,
		history:  history,
		oracle:   oracle,
		writer:   writer,
		media:    media,
		shots:    shots,
		logger:   logger,
		now:      time.Now,
	}
}

// Process handles one inbound text message. It returns the updated session
// and the reply to render. Validation failures keep the caller in the same
// state with corrective guidance; only collaborator faults return an error.
func (e *Engine) Process(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	// The reset keywords work from every state so no state can trap the
	// caller. Checked before any state-specific logic.
	if matches(message, resetKeywords) {
		sess.Reset()
		greeting, err := e.greet(ctx, sess.Identity)
		if err != nil {
			return sess, Reply{}, err
		}
		return sess, greeting, nil
	}

	switch sess.State {
	case session.StateMenu:
		return e.handleMenu(ctx, sess, message)
	case session.StateGetName:
		return e.handleGetName(ctx, sess, message)
	case session.StateSelectServices:
		return e.handleSelectServices(ctx, sess, message)
	case session.StateSelectDate:
		return e.handleSelectDate(ctx, sess, message)
	case session.StateSelectTime:
		return e.handleSelectTime(ctx, sess, message)
	case session.StateConfirmWithoutPayment:
		return e.handleConfirmWithoutPayment(ctx, sess, message)
	case session.StateConfirmWithPayment:
		return e.handleConfirmWithPayment(ctx, sess, message)
	case session.StateShowPayment:
		return e.handleShowPayment(ctx, sess, message)
	case session.StateWaitingScreenshot:
		return e.handleWaitingScreenshot(ctx, sess, message)
	default:
		// Unknown persisted state: self-heal to the menu.
		sess.Reset()
		greeting, err := e.greet(ctx, sess.Identity)
		if err != nil {
			return sess, Reply{}, err
		}
		return sess, greeting, nil
	}
}

// greet builds the menu greeting, personalized when a profile exists.
func (e *Engine) greet(ctx context.Context, identity string) (Reply, error) {
	name := ""
	profile, err := e.profiles.Get(ctx, identity)
	if err != nil {
		return Reply{}, err
	}
	if profile != nil {
		name = profile.Name
	}
	return Reply{Kind: ReplyMenu, Text: greetingText(e.catalog.Salon.Name, name)}, nil
}

func (e *Engine) handleMenu(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	switch {
	case matches(message, greetingKeywords):
		sess.Draft = session.Draft{}
		reply, err := e.greet(ctx, sess.Identity)
		return sess, reply, err

	case matches(message, newBookingPhrases):
		profile, err := e.profiles.Get(ctx, sess.Identity)
		if err != nil {
			return sess, Reply{}, err
		}
		if profile == nil || profile.Name == "" {
			sess.State = session.StateGetName
			return sess, Reply{Kind: ReplyText, Text: askNameText}, nil
		}
		sess.Draft = session.Draft{Name: profile.Name}
		sess.State = session.StateSelectServices
		return sess, Reply{Kind: ReplyText, Text: selectionInstructionsText(e.catalog)}, nil

	case matches(message, myBookingsPhrases):
		list, err := e.history.List(ctx, bookings.Filter{Identity: sess.Identity, Limit: recentBookingsShown})
		if err != nil {
			return sess, Reply{}, err
		}
		total := len(list)
		if total == recentBookingsShown {
			if total, err = e.history.CountByIdentity(ctx, sess.Identity); err != nil {
				return sess, Reply{}, err
			}
		}
		return sess, Reply{Kind: ReplyMenu, Text: myBookingsText(e.catalog, list, total)}, nil

	case matches(message, contactPhrases):
		return sess, Reply{Kind: ReplyMenu, Text: contactText(e.catalog)}, nil

	default:
		return sess, Reply{Kind: ReplyMenu, Text: fallbackText()}, nil
	}
}

func (e *Engine) handleGetName(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	name := strings.TrimSpace(message)
	if len([]rune(name)) < 2 {
		return sess, Reply{Kind: ReplyText, Text: invalidNameText}, nil
	}

	if err := e.profiles.Upsert(ctx, sess.Identity, name); err != nil {
		return sess, Reply{}, err
	}
	sess.Draft.Name = name
	sess.State = session.StateSelectServices

	text := fmt.Sprintf("Nice to meet you, *%s*! 😊\n\n", name) + selectionInstructionsText(e.catalog)
	return sess, Reply{Kind: ReplyText, Text: text}, nil
}

func (e *Engine) handleSelectServices(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	if matches(message, cancelPhrases) || matches(message, backPhrases) {
		sess.Reset()
		return sess, Reply{Kind: ReplyMenu, Text: cancelledText}, nil
	}

	ids, ok := parseServiceSelection(message, e.catalog)
	if !ok {
		return sess, Reply{Kind: ReplyText, Text: invalidServicesText(e.catalog)}, nil
	}

	total, err := e.catalog.Total(ids)
	if err != nil {
		// parseServiceSelection validated every id, so this is unreachable
		// unless the catalog changed underneath us.
		return sess, Reply{}, err
	}
	sess.Draft.Services = ids
	sess.Draft.Total = total
	sess.Draft.AdvanceRequired = e.catalog.Advance(total)
	sess.State = session.StateSelectDate

	return sess, Reply{
		Kind:  ReplyDateList,
		Text:  servicesSelectedText(e.catalog, sess.Draft),
		Dates: nextDates(e.now()),
	}, nil
}

// parseServiceSelection validates a comma-separated id list against the
// catalog. Any unknown token rejects the whole selection.
func parseServiceSelection(message string, c *catalog.Catalog) ([]string, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(message), " ", "")
	if cleaned == "" {
		return nil, false
	}
	tokens := strings.Split(cleaned, ",")
	ids := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			return nil, false
		}
		if _, ok := c.Service(tok); !ok {
			return nil, false
		}
		ids = append(ids, tok)
	}
	if len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

func (e *Engine) handleSelectDate(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	if matches(message, cancelPhrases) {
		sess.Reset()
		return sess, Reply{Kind: ReplyMenu, Text: cancelledText}, nil
	}
	if matches(message, backPhrases) || equalFold(message, "change services") {
		// Keep only the name; totals are re-derived from the new selection.
		sess.Draft = session.Draft{Name: sess.Draft.Name}
		sess.State = session.StateSelectServices
		return sess, Reply{Kind: ReplyText, Text: selectionInstructionsText(e.catalog)}, nil
	}

	offered := nextDates(e.now())
	chosen, ok := matchDate(strings.TrimSpace(message), offered)
	if !ok {
		return sess, Reply{Kind: ReplyDateList, Text: invalidDateText, Dates: offered}, nil
	}

	free, err := e.oracle.AvailableSlots(ctx, chosen.Value)
	if err != nil {
		return sess, Reply{}, err
	}
	if len(free) == 0 {
		return sess, Reply{Kind: ReplyDateList, Text: noSlotsText, Dates: offered}, nil
	}

	// Freeze the slot list now so the caller's numeric choice resolves
	// against exactly what they were shown, even if availability shifts.
	sess.Draft.Date = chosen.Value
	sess.Draft.DateLabel = chosen.Label
	sess.Draft.AvailableSlots = free
	sess.State = session.StateSelectTime

	return sess, Reply{Kind: ReplyText, Text: slotListText(chosen.Label, free)}, nil
}

func (e *Engine) handleSelectTime(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	if matches(message, cancelPhrases) {
		sess.Reset()
		return sess, Reply{Kind: ReplyMenu, Text: cancelledText}, nil
	}
	if matches(message, backPhrases) || equalFold(message, "change date") {
		sess.Draft.Date = ""
		sess.Draft.DateLabel = ""
		sess.Draft.Time = ""
		sess.Draft.AvailableSlots = nil
		sess.State = session.StateSelectDate
		return sess, Reply{Kind: ReplyDateList, Text: selectDateText, Dates: nextDates(e.now())}, nil
	}

	slot, ok := matchSlot(message, sess.Draft.AvailableSlots)
	if !ok {
		text := fmt.Sprintf("❌ Please enter a valid slot number (1-%d)\n\n%s",
			len(sess.Draft.AvailableSlots),
			slotListText(sess.Draft.DateLabel, sess.Draft.AvailableSlots))
		return sess, Reply{Kind: ReplyText, Text: text}, nil
	}

	sess.Draft.Time = slot
	summary := bookingSummaryText(e.catalog, sess.Draft)
	if sess.Draft.AdvanceRequired > 0 {
		sess.State = session.StateConfirmWithPayment
		return sess, Reply{Kind: ReplyProceedPayment, Text: summary}, nil
	}
	sess.State = session.StateConfirmWithoutPayment
	return sess, Reply{Kind: ReplyConfirm, Text: summary}, nil
}

// matchSlot resolves the message against the frozen slot list: either a
// 1-based index into it or an exact slot label.
func matchSlot(message string, slots []string) (string, bool) {
	trimmed := strings.TrimSpace(message)
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < 1 || n > len(slots) {
			return "", false
		}
		return slots[n-1], true
	}
	for _, slot := range slots {
		if equalFold(trimmed, slot) {
			return slot, true
		}
	}
	return "", false
}

func (e *Engine) handleConfirmWithoutPayment(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	switch {
	case matches(message, confirmPhrases):
		draft := sess.Draft
		draft.AdvanceRequired = 0
		id, err := e.writer.Finalize(ctx, sess.Identity, draft, bookings.StatusConfirmed)
		if err != nil {
			return sess, Reply{}, err
		}
		text := bookingConfirmedText(e.catalog, draft, id)
		sess.Reset()
		return sess, Reply{Kind: ReplyMenu, Text: text}, nil

	case matches(message, cancelPhrases):
		sess.Reset()
		return sess, Reply{Kind: ReplyMenu, Text: cancelledText}, nil

	default:
		return sess, Reply{Kind: ReplyConfirm, Text: confirmPromptText}, nil
	}
}

func (e *Engine) handleConfirmWithPayment(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	switch {
	case matches(message, proceedPhrases):
		sess.State = session.StateShowPayment
		return sess, Reply{Kind: ReplyPaymentQR, AdvanceDue: sess.Draft.AdvanceRequired}, nil

	case matches(message, cancelPhrases):
		sess.Reset()
		return sess, Reply{Kind: ReplyMenu, Text: cancelledText}, nil

	default:
		return sess, Reply{Kind: ReplyProceedPayment, Text: proceedPromptText}, nil
	}
}

func (e *Engine) handleShowPayment(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	switch {
	case matches(message, paidPhrases):
		sess.State = session.StateWaitingScreenshot
		return sess, Reply{Kind: ReplyText, Text: uploadScreenshotText}, nil

	case matches(message, backPhrases):
		sess.State = session.StateConfirmWithPayment
		return sess, Reply{Kind: ReplyProceedPayment, Text: bookingSummaryText(e.catalog, sess.Draft)}, nil

	default:
		return sess, Reply{Kind: ReplyText, Text: paidPromptText}, nil
	}
}

func (e *Engine) handleWaitingScreenshot(ctx context.Context, sess session.Session, message string) (session.Session, Reply, error) {
	if matches(message, cancelPhrases) {
		sess.Reset()
		return sess, Reply{Kind: ReplyMenu, Text: cancelledText}, nil
	}
	return sess, Reply{Kind: ReplyText, Text: awaitingScreenshotText}, nil
}

// HandleImage is the attachment transition. It runs outside the text state
// machine: only an image while waiting for payment proof does anything; any
// other state ignores the image with no reply at all.
func (e *Engine) HandleImage(ctx context.Context, sess session.Session, mediaID string) (session.Session, Reply, error) {
	if sess.State != session.StateWaitingScreenshot {
		return sess, Reply{}, nil
	}

	data, err := e.media.DownloadMedia(ctx, mediaID)
	if err != nil {
		// Download failures are recoverable: ask for a resend, keep state so
		// the caller can try again.
		e.logger.Warn("payment screenshot download failed", "identity", sess.Identity, "error", err)
		return sess, Reply{Kind: ReplyText, Text: screenshotRetryText}, nil
	}

	// Short random suffix keeps names unique when the same caller resends
	// within a second.
	name := fmt.Sprintf("payment_%s_%s_%s.jpg",
		sess.Identity, e.now().UTC().Format("20060102_150405"), uuid.NewString()[:8])
	ref, err := e.shots.Save(ctx, name, data)
	if err != nil {
		return sess, Reply{}, err
	}

	id, err := e.writer.Finalize(ctx, sess.Identity, sess.Draft, bookings.StatusPaymentPending)
	if err != nil {
		return sess, Reply{}, err
	}
	if err := e.writer.AttachScreenshot(ctx, id, ref); err != nil {
		return sess, Reply{}, err
	}

	sess.Reset()
	return sess, Reply{Kind: ReplyMenu, Text: screenshotReceivedText(id)}, nil
}
