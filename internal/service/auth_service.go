package service

import (
	"context"
	"fmt"
	"time"

	"reviewhub/internal/model"
	"reviewhub/internal/repository"
	"reviewhub/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// AuthService runs the Google OAuth consent flow, persists the resulting
// credential, and issues session tokens.
type AuthService struct {
	users      repository.UserRepository
	creds      repository.CredentialRepository
	oauth      *oauth2.Config
	jwtSecret  string
	sessionTTL time.Duration
	logger     zerolog.Logger
}

// NewAuthService creates an AuthService with a scoped logger.
func NewAuthService(users repository.UserRepository, creds repository.CredentialRepository, oauth *oauth2.Config, jwtSecret string, sessionTTL time.Duration, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		creds:      creds,
		oauth:      oauth,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		logger:     logger.With().Str("service", "AuthService").Logger(),
	}
}

// LoginURL returns the Google consent URL. Offline access plus forced
// consent so Google returns a refresh token for the Business Profile sync.
func (s *AuthService) LoginURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges the authorization code, upserts the user and
// their Google credential, and issues a session JWT.
func (s *AuthService) HandleCallback(ctx context.Context, code string) (*model.User, string, error) {
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("exchange authorization code: %w", err)
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(s.oauth.TokenSource(ctx, tok)))
	if err != nil {
		return nil, "", fmt.Errorf("create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, "", fmt.Errorf("userinfo response has no email")
	}

	user := &model.User{
		UserID:    uuid.NewString(),
		Name:      info.Name,
		Email:     info.Email,
		AvatarURL: info.Picture,
	}
	if err := s.users.UpsertByEmail(ctx, user); err != nil {
		return nil, "", err
	}

	cred := &model.GoogleCredential{
		UserID:       user.UserID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenExpiry:  tok.Expiry,
		Scope:        businessManageScope,
	}
	if err := s.creds.Upsert(ctx, cred); err != nil {
		return nil, "", err
	}

	session, err := util.GenerateSessionToken(user.UserID, s.jwtSecret, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info().Str("user_id", user.UserID).Msg("User signed in with Google")
	return user, session, nil
}

// businessManageScope mirrors the scope requested in the consent flow; the
// auth service records it on the stored credential.
const businessManageScope = "https://www.googleapis.com/auth/business.manage"
