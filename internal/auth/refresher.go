package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"

	"github.com/docsched/docsched/internal/metrics"
	"github.com/docsched/docsched/internal/store"
)

// refreshSkew is the remaining lifetime at or below which the stored access
// token is refreshed before use.
const refreshSkew = 60 * time.Second

// EnsureFresh returns a currently valid access token for the credential.
// A token with more than refreshSkew of lifetime left is returned as stored,
// with no network call. Otherwise the refresh token is redeemed and the new
// access token and expiry are persisted before being returned.
//
// If the token endpoint rejects the refresh, the stale token is returned with
// a warning; the next calendar call will then fail visibly rather than this
// path aborting the request.
func (s *Service) EnsureFresh(ctx context.Context, cred *store.DoctorCredential) (*oauth2.Token, error) {
	stored := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       cred.TokenExpiry,
	}

	if time.Until(cred.TokenExpiry) > refreshSkew {
		return stored, nil
	}

	// An empty access token forces the token source to hit the endpoint
	// instead of reusing what it was seeded with.
	src := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		log.Printf("[WARN] token refresh failed for doctor %s, proceeding with stale token: %v", cred.DoctorID, err)
		return stored, nil
	}

	if err := s.creds.UpdateTokens(ctx, cred.Email, fresh.AccessToken, fresh.Expiry); err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("persist refreshed token for %s: %w", cred.Email, err)
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	log.Printf("[INFO] token refreshed for doctor %s", cred.DoctorID)

	cred.AccessToken = fresh.AccessToken
	cred.TokenExpiry = fresh.Expiry
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = cred.RefreshToken
	}
	return fresh, nil
}
