package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docsched/docsched/internal/gcal"
	"github.com/docsched/docsched/internal/metrics"
)

// searchHorizon bounds the next-slot scan: no slot at or beyond
// from+searchHorizon is ever returned.
const searchHorizon = 7 * 24 * time.Hour

// ErrNoSlot means the scan exhausted the horizon without a free, valid slot.
var ErrNoSlot = errors.New("no available slot within the search horizon")

// isWindowFree issues a single free/busy query for exactly [start, end) and
// reports the window free iff the returned busy set is empty. The remote
// answer for the whole window is what counts; no overlap math is applied.
func isWindowFree(ctx context.Context, cal gcal.API, start, end time.Time) (bool, error) {
	metrics.FreeBusyProbes.Inc()
	busy, err := cal.FreeBusy(ctx, gcal.PrimaryCalendar, start, end)
	if err != nil {
		return false, fmt.Errorf("availability check for %s: %w", start.Format(time.RFC3339), err)
	}
	return len(busy) == 0, nil
}

// findNextSlot scans forward from `from` in one-hour steps and returns the
// first slot that is both business-valid and free, or ErrNoSlot once the
// seven-day horizon is reached. The scan is strictly sequential, one probe
// at a time; the caller bounds its total wall-clock time through ctx.
func findNextSlot(ctx context.Context, cal gcal.API, from time.Time) (Slot, error) {
	horizon := from.Add(searchHorizon)

	for step := from; step.Before(horizon); step = step.Add(SlotLength) {
		if err := ctx.Err(); err != nil {
			return Slot{}, fmt.Errorf("slot search aborted: %w", err)
		}
		if !IsValidStart(step) {
			continue
		}
		free, err := isWindowFree(ctx, cal, step, step.Add(SlotLength))
		if err != nil {
			return Slot{}, err
		}
		if free {
			return Slot{Start: step}, nil
		}
	}
	return Slot{}, ErrNoSlot
}
