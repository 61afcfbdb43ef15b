package schedule

import (
	"testing"
	"time"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func TestIsValidStart(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday morning", time.Date(2025, 3, 24, 9, 0, 0, 0, ist), true},
		{"friday afternoon", time.Date(2025, 3, 28, 13, 0, 0, 0, ist), true},
		{"last bookable hour", time.Date(2025, 3, 28, 16, 0, 0, 0, ist), true},
		{"minute past last hour", time.Date(2025, 3, 28, 16, 59, 0, 0, ist), true},
		{"close of business", time.Date(2025, 3, 28, 17, 0, 0, 0, ist), false},
		{"before opening", time.Date(2025, 3, 28, 8, 59, 0, 0, ist), false},
		{"on the opening hour", time.Date(2025, 3, 28, 9, 0, 0, 0, ist), true},
		{"saturday", time.Date(2025, 3, 29, 10, 0, 0, 0, ist), false},
		{"sunday", time.Date(2025, 3, 30, 10, 0, 0, 0, ist), false},
		{"midnight weekday", time.Date(2025, 3, 26, 0, 0, 0, 0, ist), false},
		{"utc zone honored as given", time.Date(2025, 3, 28, 16, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidStart(tt.t); got != tt.want {
				t.Errorf("IsValidStart(%s) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestSlotEnd(t *testing.T) {
	start := time.Date(2025, 3, 28, 13, 0, 0, 0, ist)
	s := Slot{Start: start}
	if got, want := s.End(), start.Add(time.Hour); !got.Equal(want) {
		t.Errorf("End() = %s, want %s", got, want)
	}
}

func TestSlotEqual(t *testing.T) {
	base := time.Date(2025, 3, 28, 13, 0, 0, 0, ist)
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{"identical", base, base, true},
		{"sub-minute difference ignored", base, base.Add(30 * time.Second), true},
		{"different minute", base, base.Add(time.Minute), false},
		{"same instant different zone", base, base.UTC(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Slot{Start: tt.a}).Equal(Slot{Start: tt.b}); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}
