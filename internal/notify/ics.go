// Package notify sends appointment emails carrying iCalendar invite and
// cancellation payloads through the Gmail API.
package notify

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

const prodID = "-//docsched//Appointment Scheduler//EN"

// iTIP methods carried by the calendar part.
const (
	MethodRequest = "REQUEST"
	MethodCancel  = "CANCEL"
)

// Invite describes one appointment notification.
type Invite struct {
	To        string
	Organizer string
	Subject   string
	Body      string
	Start     time.Time
	End       time.Time
}

// BuildICS renders the calendar payload for an invite. DTSTART, DTEND and
// DTSTAMP are emitted in UTC basic format; uid must be unique per message.
func BuildICS(inv Invite, method, uid string, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropMethod, method)

	event := ical.NewComponent(ical.CompEvent)
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, inv.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, inv.End.UTC())
	event.Props.SetText(ical.PropSummary, inv.Subject)
	event.Props.SetText(ical.PropDescription, "Appointment Scheduled")

	organizer := ical.NewProp(ical.PropOrganizer)
	organizer.Params.Set(ical.ParamCommonName, "DoctorScheduler")
	organizer.Value = "mailto:" + inv.Organizer
	event.Props.Set(organizer)

	attendee := ical.NewProp(ical.PropAttendee)
	attendee.Params.Set(ical.ParamRole, "REQ-PARTICIPANT")
	attendee.Params.Set(ical.ParamRSVP, "TRUE")
	attendee.Params.Set(ical.ParamCommonName, inv.To)
	attendee.Value = "mailto:" + inv.To
	event.Props.Set(attendee)

	cal.Children = append(cal.Children, event)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode ics payload: %w", err)
	}
	return buf.Bytes(), nil
}
