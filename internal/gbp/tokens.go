package gbp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrAuthExpired means the user has to go through the OAuth consent flow
// again. Callers must not treat it as transient.
var ErrAuthExpired = errors.New("google authorization expired")

// Scope required to manage Business Profile locations and reviews.
const businessManageScope = "https://www.googleapis.com/auth/business.manage"

// OAuthScopes are requested during the consent flow.
var OAuthScopes = []string{
	businessManageScope,
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// NewOAuthConfig builds the oauth2 config for the Google consent flow.
func NewOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       OAuthScopes,
		Endpoint:     google.Endpoint,
	}
}

// TokenProvider returns a valid upstream access token for a user,
// transparently refreshing and persisting it when the cached one is
// expired.
type TokenProvider struct {
	creds  repository.CredentialRepository
	oauth  *oauth2.Config
	logger zerolog.Logger
	now    func() time.Time
}

// NewTokenProvider creates a TokenProvider with a scoped logger.
func NewTokenProvider(creds repository.CredentialRepository, oauth *oauth2.Config, logger zerolog.Logger) *TokenProvider {
	return &TokenProvider{
		creds:  creds,
		oauth:  oauth,
		logger: logger.With().Str("service", "TokenProvider").Logger(),
		now:    time.Now,
	}
}

// AccessToken returns an unexpired access token for the user's linked
// Google account. A missing credential, a missing refresh token, or a
// rejected refresh all yield ErrAuthExpired.
func (p *TokenProvider) AccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := p.creds.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load credential for user %s: %w", userID, err)
	}
	if cred == nil {
		return "", fmt.Errorf("no google credential for user %s: %w", userID, ErrAuthExpired)
	}

	// Keep a minute of slack so a token does not expire mid-sync.
	if cred.AccessToken != "" && cred.TokenExpiry.After(p.now().Add(time.Minute)) {
		return cred.AccessToken, nil
	}
	if cred.RefreshToken == "" {
		return "", fmt.Errorf("no refresh token for user %s: %w", userID, ErrAuthExpired)
	}

	src := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("Refresh token grant rejected")
		return "", fmt.Errorf("refresh token for user %s rejected: %w", userID, ErrAuthExpired)
	}

	if err := p.creds.UpdateAccessToken(ctx, userID, tok.AccessToken, tok.Expiry); err != nil {
		return "", fmt.Errorf("persist refreshed token for user %s: %w", userID, err)
	}
	return tok.AccessToken, nil
}
