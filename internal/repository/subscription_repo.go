package repository

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository defines methods for accessing billing state.
type SubscriptionRepository interface {
	GetByLocation(ctx context.Context, locationID string) (*model.Subscription, error)
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)
	Upsert(ctx context.Context, sub *model.Subscription) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `location_id, stripe_subscription_id, status, current_period_start,
        current_period_end, trial_end, cancel_at_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.LocationID,
		&s.StripeSubscriptionID,
		&s.Status,
		&s.CurrentPeriodStart,
		&s.CurrentPeriodEnd,
		&s.TrialEnd,
		&s.CancelAtPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepo) GetByLocation(ctx context.Context, locationID string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE location_id = $1`
	s, err := scanSubscription(r.pool.QueryRow(ctx, q, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription for location %s: %w", locationID, err)
	}
	return s, nil
}

func (r *subscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_subscription_id = $1`
	s, err := scanSubscription(r.pool.QueryRow(ctx, q, stripeSubscriptionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription %s: %w", stripeSubscriptionID, err)
	}
	return s, nil
}

func (r *subscriptionRepo) Upsert(ctx context.Context, sub *model.Subscription) error {
	const q = `
        INSERT INTO subscriptions (location_id, stripe_subscription_id, status, current_period_start,
                                   current_period_end, trial_end, cancel_at_period_end, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        ON CONFLICT (location_id) DO UPDATE
        SET stripe_subscription_id = EXCLUDED.stripe_subscription_id,
            status = EXCLUDED.status,
            current_period_start = EXCLUDED.current_period_start,
            current_period_end = EXCLUDED.current_period_end,
            trial_end = EXCLUDED.trial_end,
            cancel_at_period_end = EXCLUDED.cancel_at_period_end,
            updated_at = NOW()
    `
	_, err := r.pool.Exec(ctx, q,
		sub.LocationID, sub.StripeSubscriptionID, sub.Status, sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd, sub.TrialEnd, sub.CancelAtPeriodEnd)
	if err != nil {
		return fmt.Errorf("upsert subscription for location %s: %w", sub.LocationID, err)
	}
	return nil
}
