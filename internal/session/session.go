// Package session models the per-caller conversation state: which step of the
// booking dialogue the caller is on, plus the draft booking accumulated so
// far. One snapshot per identity, overwritten after every message.
package session

import "time"

// State identifies the caller's current step in the booking dialogue.
type State string

const (
	StateMenu                  State = "menu"
	StateGetName               State = "get_name"
	StateSelectServices        State = "select_services"
	StateSelectDate            State = "select_date"
	StateSelectTime            State = "select_time"
	StateConfirmWithoutPayment State = "confirm_without_payment"
	StateConfirmWithPayment    State = "confirm_with_payment"
	StateShowPayment           State = "show_payment"
	StateWaitingScreenshot     State = "waiting_payment_screenshot"
)

// Valid reports whether s is one of the defined dialogue states.
func (s State) Valid() bool {
	switch s {
	case StateMenu, StateGetName, StateSelectServices, StateSelectDate,
		StateSelectTime, StateConfirmWithoutPayment, StateConfirmWithPayment,
		StateShowPayment, StateWaitingScreenshot:
		return true
	}
	return false
}

// Draft is the booking-in-progress carried through the dialogue. Fields fill
// in as the caller advances; AvailableSlots is frozen at date-selection time
// so a numeric slot choice resolves unambiguously even if availability
// changes mid-conversation.
type Draft struct {
	Name            string   `json:"name,omitempty"`
	Services        []string `json:"services,omitempty"`
	Total           int      `json:"total,omitempty"`
	AdvanceRequired int      `json:"advance_required,omitempty"`
	Date            string   `json:"date,omitempty"`
	DateLabel       string   `json:"date_label,omitempty"`
	Time            string   `json:"time,omitempty"`
	AvailableSlots  []string `json:"available_slots,omitempty"`
}

// Empty reports whether the draft carries no accumulated data.
func (d Draft) Empty() bool {
	return d.Name == "" && len(d.Services) == 0 && d.Total == 0 &&
		d.AdvanceRequired == 0 && d.Date == "" && d.Time == "" &&
		len(d.AvailableSlots) == 0
}

// Session is the sole mutable unit the dialogue engine operates on.
type Session struct {
	Identity  string    `json:"identity"`
	State     State     `json:"state"`
	Draft     Draft     `json:"draft"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns the initial session for an identity: menu state, empty draft.
func New(identity string) Session {
	return Session{Identity: identity, State: StateMenu}
}

// Reset returns the session to the menu with an empty draft.
func (s *Session) Reset() {
	s.State = StateMenu
	s.Draft = Draft{}
}
