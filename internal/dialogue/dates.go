package dialogue

import "time"

// bookingWindowDays is how far ahead a customer can book.
const bookingWindowDays = 7

// nextDates returns the bookable dates starting today: canonical YYYY-MM-DD
// values with "Today" / "Tomorrow" / "02 Sep, Tue" labels.
func nextDates(now time.Time) []DateOption {
	dates := make([]DateOption, 0, bookingWindowDays)
	for i := 0; i < bookingWindowDays; i++ {
		day := now.AddDate(0, 0, i)
		var label string
		switch i {
		case 0:
			label = "Today"
		case 1:
			label = "Tomorrow"
		default:
			label = day.Format("02 Jan, Mon")
		}
		dates = append(dates, DateOption{
			Value: day.Format("2006-01-02"),
			Label: label,
		})
	}
	return dates
}

// matchDate resolves an inbound message against the offered dates, accepting
// either the canonical value or the display label (list selections arrive as
// the label).
func matchDate(input string, dates []DateOption) (DateOption, bool) {
	for _, d := range dates {
		if input == d.Value || equalFold(input, d.Label) {
			return d, true
		}
	}
	return DateOption{}, false
}
