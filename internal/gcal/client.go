// Package gcal adapts the Google Calendar API to the small capability set
// the scheduling engine needs.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// CalendarID for the authenticated principal's default calendar.
const PrimaryCalendar = "primary"

// ErrEventNotFound reports a 404 from the remote calendar.
var ErrEventNotFound = errors.New("calendar event not found")

// BusyInterval is one busy period returned by a free/busy query.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Event is the remote calendar event state the engine cares about.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// API is the calendar capability set used by the scheduling engine.
type API interface {
	// FreeBusy returns the busy intervals overlapping [start, end) on one calendar.
	FreeBusy(ctx context.Context, calendarID string, start, end time.Time) ([]BusyInterval, error)
	// InsertEvent creates the event and returns the remote event id.
	InsertEvent(ctx context.Context, calendarID string, ev Event, timeZone string) (string, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error)
	// PrimaryCalendarEmail returns the id of the first entry in the
	// principal's calendar list, which Google keys by email.
	PrimaryCalendarEmail(ctx context.Context) (string, error)
}

// Client wraps a calendar/v3 service authorized for a single principal.
type Client struct {
	svc *calendar.Service
}

var _ API = (*Client)(nil)

// NewClient builds a calendar client from a per-principal token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewClientWithHTTP builds a client on an explicit HTTP client. Used by tests
// to point the service at a stub server.
func NewClientWithHTTP(ctx context.Context, hc *http.Client, baseURL string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(baseURL))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func (c *Client) FreeBusy(ctx context.Context, calendarID string, start, end time.Time) ([]BusyInterval, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}

	resp, err := c.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("freebusy response missing calendar %q", calendarID)
	}

	busy := make([]BusyInterval, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		iv, err := parsePeriod(p)
		if err != nil {
			return nil, err
		}
		busy = append(busy, iv)
	}
	return busy, nil
}

func (c *Client) InsertEvent(ctx context.Context, calendarID string, ev Event, timeZone string) (string, error) {
	created, err := c.svc.Events.Insert(calendarID, &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: timeZone},
		End:         &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: timeZone},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	ev, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	out, err := fromAPIEvent(ev)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return ErrEventNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	resp, err := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		ev, err := fromAPIEvent(item)
		if err != nil {
			// All-day entries carry Date instead of DateTime; they are
			// not appointments, skip them.
			continue
		}
		out = append(out, *ev)
	}
	return out, nil
}

func (c *Client) PrimaryCalendarEmail(ctx context.Context) (string, error) {
	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list calendars: %w", err)
	}
	if len(list.Items) == 0 {
		return "", errors.New("calendar list is empty")
	}
	return list.Items[0].Id, nil
}

func fromAPIEvent(ev *calendar.Event) (*Event, error) {
	if ev.Start == nil || ev.End == nil || ev.Start.DateTime == "" || ev.End.DateTime == "" {
		return nil, fmt.Errorf("event %s has no timed start/end", ev.Id)
	}
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return nil, fmt.Errorf("event %s start: %w", ev.Id, err)
	}
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return nil, fmt.Errorf("event %s end: %w", ev.Id, err)
	}
	return &Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       start,
		End:         end,
	}, nil
}

func parsePeriod(p *calendar.TimePeriod) (BusyInterval, error) {
	start, err := time.Parse(time.RFC3339, p.Start)
	if err != nil {
		return BusyInterval{}, fmt.Errorf("busy period start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, p.End)
	if err != nil {
		return BusyInterval{}, fmt.Errorf("busy period end: %w", err)
	}
	return BusyInterval{Start: start, End: end}, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
