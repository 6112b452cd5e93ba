// Package oauth builds authenticated HTTP clients for the activity
// source. Tokens live on the user document; refreshed tokens are written
// back so other workers pick them up.
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"

	shared "github.com/pedalhub/automator/pkg"
	"github.com/pedalhub/automator/pkg/types"
)

// StravaEndpoint is Strava's OAuth2 token endpoint pair.
var StravaEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.strava.com/oauth/authorize",
	TokenURL: "https://www.strava.com/oauth/token",
}

func stravaConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		ClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		Endpoint:     StravaEndpoint,
	}
}

// NewStravaClient returns an HTTP client that authenticates as the given
// user and transparently refreshes expired tokens.
func NewStravaClient(ctx context.Context, db shared.Database, user *types.User) (*http.Client, error) {
	if user.Strava == nil || !user.Strava.Enabled {
		return nil, fmt.Errorf("user %s has no enabled strava integration", user.ID)
	}
	if user.Strava.RefreshToken == "" {
		return nil, fmt.Errorf("user %s is missing a strava refresh token", user.ID)
	}

	tok := &oauth2.Token{
		AccessToken:  user.Strava.AccessToken,
		RefreshToken: user.Strava.RefreshToken,
		Expiry:       user.Strava.ExpiresAt,
	}

	src := &savingTokenSource{
		db:     db,
		userID: user.ID,
		src:    stravaConfig().TokenSource(ctx, tok),
		last:   tok,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// savingTokenSource persists refreshed tokens back to the user document.
// Persist failures are non-fatal: the refreshed token still serves the
// current request and the next worker refreshes again.
type savingTokenSource struct {
	db     shared.Database
	userID string
	src    oauth2.TokenSource
	mu     sync.Mutex
	last   *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		update := map[string]interface{}{
			"strava": map[string]interface{}{
				"access_token": tok.AccessToken,
				"expires_at":   tok.Expiry,
			},
		}
		if tok.RefreshToken != "" {
			update["strava"].(map[string]interface{})["refresh_token"] = tok.RefreshToken
		}
		// Best effort; context.Background keeps the persist independent
		// of the (possibly short-lived) request context.
		_ = s.db.UpdateUser(context.Background(), s.userID, update)
		s.last = tok
	}
	return tok, nil
}
