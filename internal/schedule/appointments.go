package schedule

import (
	"context"
	"time"

	"github.com/docsched/docsched/internal/gcal"
)

// AppointmentSummary is one upcoming appointment with the patient identity
// recovered from the event's summary and description.
type AppointmentSummary struct {
	EventID          string    `json:"eventId"`
	FirstName        string    `json:"firstName,omitempty"`
	LastName         string    `json:"lastName,omitempty"`
	PatientEmail     string    `json:"patientEmailId,omitempty"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	EventDescription string    `json:"eventDescription"`
}

// UpcomingAppointments lists the doctor's calendar events for the next seven
// days, ordered by start time, decoding participant identity where the
// encoding matches.
func (e *Engine) UpcomingAppointments(ctx context.Context, doctorEmail string) ([]AppointmentSummary, error) {
	access, err := e.resolveAccess(ctx, doctorEmail)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	events, err := access.calendar.ListEvents(ctx, gcal.PrimaryCalendar, now, now.Add(searchHorizon))
	if err != nil {
		return nil, err
	}

	out := make([]AppointmentSummary, 0, len(events))
	for _, ev := range events {
		first, last := DecodeSummary(ev.Summary)
		out = append(out, AppointmentSummary{
			EventID:          ev.ID,
			FirstName:        first,
			LastName:         last,
			PatientEmail:     DecodeDescription(ev.Description),
			StartTime:        ev.Start,
			EndTime:          ev.End,
			EventDescription: ev.Summary,
		})
	}
	return out, nil
}
