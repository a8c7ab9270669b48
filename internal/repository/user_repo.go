package repository

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository defines methods for accessing user accounts.
type UserRepository interface {
	// UpsertByEmail creates the user on first sign-in and refreshes the
	// profile fields on subsequent sign-ins.
	UpsertByEmail(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error)
	UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) UpsertByEmail(ctx context.Context, u *model.User) error {
	const q = `
        INSERT INTO users (user_id, name, email, avatar_url, notify_new_reviews, created_at, updated_at)
        VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
        ON CONFLICT (email) DO UPDATE
        SET name = EXCLUDED.name,
            avatar_url = EXCLUDED.avatar_url,
            updated_at = NOW()
        RETURNING user_id, name, email, avatar_url, stripe_customer_id, notify_new_reviews, created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q, u.UserID, u.Name, u.Email, u.AvatarURL).Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.StripeCustomerID,
		&u.NotifyNewReviews,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", u.Email, err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	const q = `
        SELECT user_id, name, email, avatar_url, stripe_customer_id, notify_new_reviews, created_at, updated_at
        FROM users
        WHERE user_id = $1
    `
	var u model.User
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.StripeCustomerID,
		&u.NotifyNewReviews,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user %s: %w", id, err)
	}
	return &u, nil
}

func (r *userRepo) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	const q = `
        SELECT user_id, name, email, avatar_url, stripe_customer_id, notify_new_reviews, created_at, updated_at
        FROM users
        WHERE stripe_customer_id = $1
    `
	var u model.User
	err := r.pool.QueryRow(ctx, q, customerID).Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.StripeCustomerID,
		&u.NotifyNewReviews,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user by stripe customer %s: %w", customerID, err)
	}
	return &u, nil
}

func (r *userRepo) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	const q = `
        UPDATE users
        SET stripe_customer_id = $2, updated_at = NOW()
        WHERE user_id = $1
    `
	_, err := r.pool.Exec(ctx, q, userID, customerID)
	if err != nil {
		return fmt.Errorf("update stripe customer id for user %s: %w", userID, err)
	}
	return nil
}
