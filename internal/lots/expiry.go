package lots

import "time"

// Band is the urgency class of a lot's expiry date relative to a given day.
type Band string

const (
	BandNone     Band = "none"     // no expiry date on the lot
	BandExpired  Band = "expired"  // date already passed
	BandToday    Band = "today"    // expires today
	BandTomorrow Band = "tomorrow" // expires tomorrow
	BandSoon     Band = "soon"     // expires the day after tomorrow
	BandOK       Band = "ok"       // anything further out
)

// Day strips the time component so calendar arithmetic is exact.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ClassifyExpiry maps an expiry date to its urgency band. The caller supplies
// "today" explicitly so views and tests pin it instead of reading the clock.
func ClassifyExpiry(expiresOn *time.Time, today time.Time) Band {
	if expiresOn == nil {
		return BandNone
	}

	d := Day(*expiresOn)
	today = Day(today)

	switch {
	case d.Before(today):
		return BandExpired
	case d.Equal(today):
		return BandToday
	case d.Equal(today.AddDate(0, 0, 1)):
		return BandTomorrow
	case d.Equal(today.AddDate(0, 0, 2)):
		return BandSoon
	default:
		return BandOK
	}
}

// ExpiringCutoff is the last date still shown on the expiring-soon view:
// lots expiring up to two days from today (inclusive) qualify.
func ExpiringCutoff(today time.Time) time.Time {
	return Day(today).AddDate(0, 0, 2)
}
