package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/docsched/docsched/internal/gcal"
	"github.com/docsched/docsched/internal/metrics"
	"github.com/docsched/docsched/internal/notify"
	"github.com/docsched/docsched/internal/store"
)

// CancellationRequest identifies the appointment to cancel.
type CancellationRequest struct {
	EventID     string `json:"eventId"`
	DoctorEmail string `json:"doctorEmailId"`
}

type CancellationStatus int

const (
	CancelCancelled CancellationStatus = iota
	// CancelCancelledNoContact: the event carried no recoverable patient
	// email, so the deletion stands without a notification.
	CancelCancelledNoContact
	// CancelCancelledNotifyFailed: deleted, but the notification send
	// failed. The deletion is not reversed.
	CancelCancelledNotifyFailed
	CancelNotFound
	CancelFailed
)

// CancellationOutcome is the terminal result of one cancellation attempt.
type CancellationOutcome struct {
	Status        CancellationStatus
	NotifiedEmail string
	Err           error
}

func (o CancellationOutcome) Success() bool {
	switch o.Status {
	case CancelCancelled, CancelCancelledNoContact, CancelCancelledNotifyFailed:
		return true
	}
	return false
}

// Message renders the caller-facing outcome string; the leading marker
// drives the HTTP status upstream.
func (o CancellationOutcome) Message() string {
	switch o.Status {
	case CancelCancelled:
		return "✅ Appointment cancelled and notification sent to " + o.NotifiedEmail
	case CancelCancelledNoContact:
		return "✅ Appointment cancelled but patient email not found for notification."
	case CancelCancelledNotifyFailed:
		return fmt.Sprintf("✅ Appointment cancelled but notification to %s failed: %v", o.NotifiedEmail, o.Err)
	case CancelNotFound:
		return "❌ Appointment not found in calendar."
	default:
		if o.Err != nil && errors.Is(o.Err, errBlankEventID) {
			return "❌ Event ID is required to cancel an appointment."
		}
		return fmt.Sprintf("❌ Error while cancelling appointment: %v", o.Err)
	}
}

func (o CancellationOutcome) metricLabel() string {
	switch o.Status {
	case CancelCancelled:
		return "cancelled"
	case CancelCancelledNoContact:
		return "cancelled_no_contact"
	case CancelCancelledNotifyFailed:
		return "cancelled_notify_failed"
	case CancelNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

var errBlankEventID = errors.New("event id is required")

// Cancel runs the cancellation workflow: fetch the event, recover the
// patient's identity from its summary and description, delete it, then
// notify. Deletion is the commit point; a failed notification is reported
// but never reverses it. Identity parsing is best effort.
func (e *Engine) Cancel(ctx context.Context, req CancellationRequest) CancellationOutcome {
	out := e.cancel(ctx, req)
	metrics.CancellationOutcomes.WithLabelValues(out.metricLabel()).Inc()
	if !out.Success() {
		log.Printf("[WARN] cancellation not completed for event %q: %s", req.EventID, out.Message())
	}
	return out
}

func (e *Engine) cancel(ctx context.Context, req CancellationRequest) CancellationOutcome {
	if req.EventID == "" {
		return CancellationOutcome{Status: CancelFailed, Err: errBlankEventID}
	}

	access, err := e.resolveAccess(ctx, req.DoctorEmail)
	if err != nil {
		return CancellationOutcome{Status: CancelFailed, Err: err}
	}

	event, err := access.calendar.GetEvent(ctx, gcal.PrimaryCalendar, req.EventID)
	if errors.Is(err, gcal.ErrEventNotFound) {
		return CancellationOutcome{Status: CancelNotFound}
	}
	if err != nil {
		return CancellationOutcome{Status: CancelFailed, Err: err}
	}

	firstName, lastName := DecodeSummary(event.Summary)
	patientEmail := DecodeDescription(event.Description)

	if err := access.calendar.DeleteEvent(ctx, gcal.PrimaryCalendar, req.EventID); err != nil {
		if errors.Is(err, gcal.ErrEventNotFound) {
			return CancellationOutcome{Status: CancelNotFound}
		}
		return CancellationOutcome{Status: CancelFailed, Err: err}
	}

	// Deletion committed; record it. Audit failure is logged, not surfaced,
	// the same way the booking path treats its trail.
	if err := e.audits.Append(ctx, store.AppointmentAudit{
		ID:           uuid.NewString(),
		DoctorEmail:  access.email,
		PatientEmail: patientEmail,
		FirstName:    firstName,
		LastName:     lastName,
		SlotStart:    event.Start,
		SlotEnd:      event.End,
		EventID:      event.ID,
		Status:       store.StatusCancelled,
	}); err != nil {
		log.Printf("[ERROR] cancellation %s: audit append for doctor %s failed: %v", event.ID, access.email, err)
	}

	if patientEmail == "" {
		return CancellationOutcome{Status: CancelCancelledNoContact}
	}

	if err := access.notifier.SendCancellation(ctx, notify.Invite{
		To:        patientEmail,
		Organizer: access.email,
		Subject:   "Appointment Cancelled",
		Body:      fmt.Sprintf("Dear %s, your appointment scheduled for %s has been cancelled.", firstName, event.Start),
		Start:     event.Start,
		End:       event.End,
	}); err != nil {
		log.Printf("[ERROR] cancellation %s: mail to %s failed: %v", event.ID, patientEmail, err)
		return CancellationOutcome{Status: CancelCancelledNotifyFailed, NotifiedEmail: patientEmail, Err: err}
	}

	return CancellationOutcome{Status: CancelCancelled, NotifiedEmail: patientEmail}
}
