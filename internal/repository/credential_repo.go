package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewhub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CredentialRepository stores the Google OAuth tokens linked to a user.
type CredentialRepository interface {
	Get(ctx context.Context, userID string) (*model.GoogleCredential, error)
	Upsert(ctx context.Context, cred *model.GoogleCredential) error
	// UpdateAccessToken persists a refreshed access token and its expiry
	// without touching the stored refresh token.
	UpdateAccessToken(ctx context.Context, userID, accessToken string, expiry time.Time) error
}

type credentialRepo struct {
	pool *pgxpool.Pool
}

// NewCredentialRepo creates a new CredentialRepository.
func NewCredentialRepo(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepo{pool: pool}
}

func (r *credentialRepo) Get(ctx context.Context, userID string) (*model.GoogleCredential, error) {
	const q = `
        SELECT user_id, access_token, refresh_token, token_expiry, scope, created_at, updated_at
        FROM google_credentials
        WHERE user_id = $1
    `
	var c model.GoogleCredential
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&c.UserID,
		&c.AccessToken,
		&c.RefreshToken,
		&c.TokenExpiry,
		&c.Scope,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch google credential for user %s: %w", userID, err)
	}
	return &c, nil
}

func (r *credentialRepo) Upsert(ctx context.Context, cred *model.GoogleCredential) error {
	// An OAuth re-consent may omit the refresh token; keep the stored one
	// in that case.
	const q = `
        INSERT INTO google_credentials (user_id, access_token, refresh_token, token_expiry, scope, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET access_token = EXCLUDED.access_token,
            refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN google_credentials.refresh_token ELSE EXCLUDED.refresh_token END,
            token_expiry = EXCLUDED.token_expiry,
            scope = EXCLUDED.scope,
            updated_at = NOW()
    `
	_, err := r.pool.Exec(ctx, q, cred.UserID, cred.AccessToken, cred.RefreshToken, cred.TokenExpiry, cred.Scope)
	if err != nil {
		return fmt.Errorf("upsert google credential for user %s: %w", cred.UserID, err)
	}
	return nil
}

func (r *credentialRepo) UpdateAccessToken(ctx context.Context, userID, accessToken string, expiry time.Time) error {
	const q = `
        UPDATE google_credentials
        SET access_token = $2, token_expiry = $3, updated_at = NOW()
        WHERE user_id = $1
    `
	_, err := r.pool.Exec(ctx, q, userID, accessToken, expiry)
	if err != nil {
		return fmt.Errorf("update access token for user %s: %w", userID, err)
	}
	return nil
}
