package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/docsched/docsched/internal/gcal"
	"github.com/docsched/docsched/internal/metrics"
	"github.com/docsched/docsched/internal/notify"
	"github.com/docsched/docsched/internal/store"
)

// BookingRequest is the immutable inbound appointment request.
// DoctorEmail may be empty in the single-operator deployment.
type BookingRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DoctorEmail  string `json:"doctorEmail"`
	PatientEmail string `json:"patientEmail"`
	StartTime    string `json:"startTime"` // e.g. "2025-03-28T13:00:00+05:30"
}

type BookingStatus int

const (
	BookingBooked BookingStatus = iota
	// BookingBookedPartial: the event insert committed but a later side
	// effect (notification or audit append) failed. The calendar state has
	// changed; this must never be collapsed into plain success or failure.
	BookingBookedPartial
	BookingSlotInvalid
	BookingSlotUnavailable
	BookingFailed
)

// BookingOutcome is the terminal result of one booking attempt.
type BookingOutcome struct {
	Status   BookingStatus
	EventID  string
	NextSlot *Slot // set when the requested slot is taken and an alternative exists
	Err      error
}

// Success reports whether the calendar was changed. Partial outcomes count:
// the event exists even though a side effect failed.
func (o BookingOutcome) Success() bool {
	return o.Status == BookingBooked || o.Status == BookingBookedPartial
}

// Message renders the caller-facing outcome string. The leading marker is
// load-bearing: upstream layers map it to an HTTP status.
func (o BookingOutcome) Message() string {
	switch o.Status {
	case BookingBooked:
		return "✅ Appointment booked successfully. Event ID: " + o.EventID
	case BookingBookedPartial:
		return fmt.Sprintf("✅ Appointment booked successfully. Event ID: %s (warning: %v)", o.EventID, o.Err)
	case BookingSlotInvalid:
		return "❌ Slot must be between 9 AM to 5 PM, Monday to Friday."
	case BookingSlotUnavailable:
		if o.NextSlot != nil {
			return "❌ Slot unavailable. Next available: " + o.NextSlot.Start.Format(time.RFC3339)
		}
		return "❌ No available slots within the next week."
	default:
		return fmt.Sprintf("❌ Error while booking appointment: %v", o.Err)
	}
}

func (o BookingOutcome) metricLabel() string {
	switch o.Status {
	case BookingBooked:
		return "booked"
	case BookingBookedPartial:
		return "booked_partial"
	case BookingSlotInvalid:
		return "slot_invalid"
	case BookingSlotUnavailable:
		return "slot_unavailable"
	default:
		return "failed"
	}
}

// Book runs the booking workflow: validate, resolve calendar access, check
// the requested window, then either insert the event or report the next
// open slot. Each step is a hard gate. The event insert is the commit
// point; notification and audit failures after it surface as a partial
// outcome, never as a rollback.
func (e *Engine) Book(ctx context.Context, req BookingRequest) BookingOutcome {
	out := e.book(ctx, req)
	metrics.BookingOutcomes.WithLabelValues(out.metricLabel()).Inc()
	if !out.Success() {
		log.Printf("[WARN] booking not completed for %s at %q: %s", req.PatientEmail, req.StartTime, out.Message())
	}
	return out
}

func (e *Engine) book(ctx context.Context, req BookingRequest) BookingOutcome {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return BookingOutcome{Status: BookingFailed, Err: fmt.Errorf("parse start time %q: %w", req.StartTime, err)}
	}

	// Business-rule gate, before any remote call.
	if !IsValidStart(start) {
		return BookingOutcome{Status: BookingSlotInvalid}
	}

	access, err := e.resolveAccess(ctx, req.DoctorEmail)
	if err != nil {
		return BookingOutcome{Status: BookingFailed, Err: err}
	}

	slot := Slot{Start: start}

	// Serialize check-then-insert per (calendar, window) on this instance.
	release := e.locks.acquire(slotLockKey(access.email, slot.Start))

	free, err := isWindowFree(ctx, access.calendar, slot.Start, slot.End())
	if err != nil {
		release()
		return BookingOutcome{Status: BookingFailed, Err: err}
	}

	if !free {
		release()
		return e.reportNextSlot(ctx, access, slot.Start)
	}

	eventID, err := access.calendar.InsertEvent(ctx, gcal.PrimaryCalendar, gcal.Event{
		Summary:     EncodeSummary(req.FirstName, req.LastName),
		Description: EncodeDescription(req.PatientEmail),
		Start:       slot.Start,
		End:         slot.End(),
	}, e.cfg.TimeZone)
	release()
	if err != nil {
		return BookingOutcome{Status: BookingFailed, Err: err}
	}

	// The event is committed. Everything below is best effort and only
	// downgrades the outcome to partial.
	var sideEffects []error

	if err := access.notifier.SendInvite(ctx, notify.Invite{
		To:        req.PatientEmail,
		Organizer: access.email,
		Subject:   "Appointment Confirmation",
		Body:      "Your appointment with " + access.email + " has been scheduled.",
		Start:     slot.Start,
		End:       slot.End(),
	}); err != nil {
		log.Printf("[ERROR] booking %s: confirmation mail to %s failed: %v", eventID, req.PatientEmail, err)
		sideEffects = append(sideEffects, fmt.Errorf("confirmation mail: %w", err))
	}

	if err := e.audits.Append(ctx, store.AppointmentAudit{
		ID:           uuid.NewString(),
		DoctorEmail:  access.email,
		PatientEmail: req.PatientEmail,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		SlotStart:    slot.Start,
		SlotEnd:      slot.End(),
		EventID:      eventID,
		Status:       store.StatusBooked,
	}); err != nil {
		log.Printf("[ERROR] booking %s: audit append for doctor %s failed: %v", eventID, access.email, err)
		sideEffects = append(sideEffects, fmt.Errorf("audit append: %w", err))
	}

	if len(sideEffects) > 0 {
		return BookingOutcome{Status: BookingBookedPartial, EventID: eventID, Err: errors.Join(sideEffects...)}
	}
	return BookingOutcome{Status: BookingBooked, EventID: eventID}
}

// reportNextSlot searches forward for an alternative and reports it. The
// engine never books the alternative on the caller's behalf.
func (e *Engine) reportNextSlot(ctx context.Context, access *principalAccess, from time.Time) BookingOutcome {
	searchCtx, cancel := context.WithTimeout(ctx, e.cfg.SearchTimeout)
	defer cancel()

	next, err := findNextSlot(searchCtx, access.calendar, from)
	if errors.Is(err, ErrNoSlot) {
		return BookingOutcome{Status: BookingSlotUnavailable}
	}
	if err != nil {
		return BookingOutcome{Status: BookingFailed, Err: err}
	}
	return BookingOutcome{Status: BookingSlotUnavailable, NextSlot: &next}
}
