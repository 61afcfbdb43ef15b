package schedule

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/docsched/docsched/internal/gcal"
	"github.com/docsched/docsched/internal/notify"
	"github.com/docsched/docsched/internal/store"
)

// Authorizer resolves a calendar owner to a usable access token.
// Implemented by auth.Service.
type Authorizer interface {
	CredentialByEmail(ctx context.Context, email string) (*store.DoctorCredential, error)
	EnsureFresh(ctx context.Context, cred *store.DoctorCredential) (*oauth2.Token, error)
}

// Notifier sends booking and cancellation emails with calendar payloads.
type Notifier interface {
	SendInvite(ctx context.Context, inv notify.Invite) error
	SendCancellation(ctx context.Context, inv notify.Invite) error
}

// CalendarFactory builds a per-principal calendar client from a fresh token.
type CalendarFactory func(ctx context.Context, tok *oauth2.Token) (gcal.API, error)

// NotifierFactory builds a per-principal notifier from a fresh token.
type NotifierFactory func(ctx context.Context, tok *oauth2.Token) (Notifier, error)

// Config carries the engine's fixed policy knobs.
type Config struct {
	// TimeZone is the IANA zone name attached to inserted events.
	TimeZone string
	// OperatorEmail is the calendar owner used when a request names no doctor.
	OperatorEmail string
	// SearchTimeout bounds the wall-clock time of a next-slot search.
	SearchTimeout time.Duration
}

// Engine orchestrates booking and cancellation against remote calendars.
// Each request builds its own calendar client and notifier from the
// principal's credential; the engine holds no per-principal state.
type Engine struct {
	cfg         Config
	auth        Authorizer
	audits      store.AuditRepository
	newCalendar CalendarFactory
	newNotifier NotifierFactory
	locks       slotLocks
}

func NewEngine(cfg Config, auth Authorizer, audits store.AuditRepository, newCalendar CalendarFactory, newNotifier NotifierFactory) *Engine {
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 30 * time.Second
	}
	return &Engine{
		cfg:         cfg,
		auth:        auth,
		audits:      audits,
		newCalendar: newCalendar,
		newNotifier: newNotifier,
		locks:       newSlotLocks(),
	}
}

// principalAccess bundles the per-request clients for one calendar owner.
type principalAccess struct {
	email    string
	calendar gcal.API
	notifier Notifier
}

// resolveAccess looks up the principal's credential, refreshes its token if
// needed, and builds the calendar client and notifier for this request.
// An empty doctorEmail falls back to the configured operator calendar.
func (e *Engine) resolveAccess(ctx context.Context, doctorEmail string) (*principalAccess, error) {
	email := doctorEmail
	if email == "" {
		email = e.cfg.OperatorEmail
	}
	if email == "" {
		return nil, fmt.Errorf("no doctor email given and no operator calendar configured")
	}

	cred, err := e.auth.CredentialByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	tok, err := e.auth.EnsureFresh(ctx, cred)
	if err != nil {
		return nil, err
	}

	cal, err := e.newCalendar(ctx, tok)
	if err != nil {
		return nil, err
	}
	sender, err := e.newNotifier(ctx, tok)
	if err != nil {
		return nil, err
	}

	return &principalAccess{email: email, calendar: cal, notifier: sender}, nil
}
