// Package auth owns the Google OAuth lifecycle: the authorization flow that
// registers a doctor, and keeping stored access tokens fresh.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/docsched/docsched/internal/config"
	"github.com/docsched/docsched/internal/gcal"
	"github.com/docsched/docsched/internal/store"
)

// ErrNotRegistered means no credential exists for the requested principal.
var ErrNotRegistered = errors.New("doctor not registered or calendar access missing")

// Service encapsulates the OAuth authorization and refresh flows.
type Service struct {
	oauth *oauth2.Config
	creds store.CredentialRepository

	// overridable in tests
	newCalendarClient func(ctx context.Context, ts oauth2.TokenSource) (gcal.API, error)
}

// NewService discovers the issuer's endpoints and builds the OAuth config.
// The issuer defaults to Google; discovery keeps the endpoint configurable
// without hardcoding provider URLs.
func NewService(ctx context.Context, cfg *config.Config, creds store.CredentialRepository) (*Service, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OAuth.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oauth issuer %s: %w", cfg.OAuth.IssuerURL, err)
	}

	oc := &oauth2.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.RedirectURL(),
		Scopes:       []string{calendar.CalendarScope, gmail.GmailSendScope},
	}

	return &Service{
		oauth: oc,
		creds: creds,
		newCalendarClient: func(ctx context.Context, ts oauth2.TokenSource) (gcal.API, error) {
			return gcal.NewClient(ctx, ts)
		},
	}, nil
}

// AuthCodeURL builds the authorization URL for a doctor. The state parameter
// carries the doctor id back through the provider redirect. Offline access
// with a forced consent prompt is required so the provider issues a refresh
// token on every registration.
func (s *Service) AuthCodeURL(doctorID string) string {
	return s.oauth.AuthCodeURL(doctorID,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// RegisterDoctor exchanges an authorization code, derives the doctor's
// calendar email from the first entry of their calendar list, and upserts
// the credential row keyed by that email. Re-authorization overwrites the
// existing row rather than creating a duplicate.
func (s *Service) RegisterDoctor(ctx context.Context, code, doctorID string) (*store.DoctorCredential, error) {
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		return nil, errors.New("token response carries no refresh token")
	}

	client, err := s.newCalendarClient(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, err
	}
	email, err := client.PrimaryCalendarEmail(ctx)
	if err != nil {
		return nil, fmt.Errorf("derive calendar email: %w", err)
	}

	cred, err := s.creds.Upsert(ctx, store.DoctorCredential{
		DoctorID:     doctorID,
		Email:        email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenExpiry:  tok.Expiry,
	})
	if err != nil {
		return nil, fmt.Errorf("persist credential: %w", err)
	}
	return cred, nil
}

// CredentialByEmail loads the stored credential for a calendar owner.
func (s *Service) CredentialByEmail(ctx context.Context, email string) (*store.DoctorCredential, error) {
	cred, err := s.creds.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}
