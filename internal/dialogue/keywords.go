package dialogue

import "strings"

// Matching is deliberately exact-set membership after trimming and case
// folding — never substring search — so stray words inside a longer message
// cannot trigger a transition.

var resetKeywords = phraseSet("menu", "main menu", "start", "restart", "back to menu")

var greetingKeywords = phraseSet("hi", "hello", "hey", "namaste")

var newBookingPhrases = phraseSet("📅 new booking", "new booking", "book now")

var myBookingsPhrases = phraseSet("📋 my bookings", "my bookings", "bookings")

var contactPhrases = phraseSet("📞 contact us", "contact us", "contact")

var confirmPhrases = phraseSet("✅ confirm now", "confirm now", "confirm", "yes")

var cancelPhrases = phraseSet("❌ cancel", "cancel", "no")

var proceedPhrases = phraseSet("💳 proceed to payment", "proceed to payment", "proceed", "pay")

var paidPhrases = phraseSet("✅ i have paid", "i have paid", "paid", "done")

var backPhrases = phraseSet("🔙 back", "back")

func phraseSet(phrases ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		set[normalize(p)] = struct{}{}
	}
	return set
}

// normalize lowercases and trims an inbound message for matching.
func normalize(msg string) string {
	return strings.ToLower(strings.TrimSpace(msg))
}

func matches(msg string, set map[string]struct{}) bool {
	_, ok := set[normalize(msg)]
	return ok
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
