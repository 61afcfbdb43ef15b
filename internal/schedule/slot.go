// Package schedule implements the booking engine: slot validity rules, the
// availability search against remote free/busy data, and the booking and
// cancellation workflows with their audit and notification side effects.
package schedule

import "time"

// SlotLength is the fixed appointment duration.
const SlotLength = time.Hour

// Business-hour bounds for a slot start. The upper bound is inclusive of
// hour 16: a slot starting at 16:00 ends at 17:00, the close of business,
// while one starting at 17:00 is rejected.
const (
	openingHour     = 9
	lastBookingHour = 16
)

// Slot is a half-open one-hour window [Start, Start+1h).
type Slot struct {
	Start time.Time
}

func (s Slot) End() time.Time {
	return s.Start.Add(SlotLength)
}

// Equal reports whether two slots share a start, to the minute.
func (s Slot) Equal(o Slot) bool {
	return s.Start.Truncate(time.Minute).Equal(o.Start.Truncate(time.Minute))
}

// IsValidStart classifies a timestamp as an eligible appointment start:
// Monday through Friday, start hour within business bounds. The timestamp's
// own zone is used as given; no conversion is applied.
func IsValidStart(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	h := t.Hour()
	return h >= openingHour && h <= lastBookingHour
}
