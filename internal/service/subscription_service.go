package service

import (
	"context"

	"reviewhub/internal/model"
	"reviewhub/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionService applies billing state changes to a location. The
// subscription row and the location's active flag always move together.
type SubscriptionService interface {
	GetByLocation(ctx context.Context, locationID string) (*model.Subscription, error)
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)
	// Apply upserts the subscription and flips the location's active flag
	// according to the new status.
	Apply(ctx context.Context, sub *model.Subscription) error
}

type subscriptionService struct {
	subs      repository.SubscriptionRepository
	locations repository.LocationRepository
	logger    zerolog.Logger
}

// NewSubscriptionService creates a SubscriptionService with a scoped logger.
func NewSubscriptionService(subs repository.SubscriptionRepository, locations repository.LocationRepository, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		subs:      subs,
		locations: locations,
		logger:    logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) GetByLocation(ctx context.Context, locationID string) (*model.Subscription, error) {
	return s.subs.GetByLocation(ctx, locationID)
}

func (s *subscriptionService) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	return s.subs.GetByStripeID(ctx, stripeSubscriptionID)
}

func (s *subscriptionService) Apply(ctx context.Context, sub *model.Subscription) error {
	if err := s.subs.Upsert(ctx, sub); err != nil {
		s.logger.Error().Err(err).Str("location_id", sub.LocationID).Msg("Failed to upsert subscription")
		return err
	}
	if err := s.locations.SetActive(ctx, sub.LocationID, sub.Billable()); err != nil {
		s.logger.Error().Err(err).Str("location_id", sub.LocationID).Msg("Failed to update location active flag")
		return err
	}
	s.logger.Info().
		Str("location_id", sub.LocationID).
		Str("status", sub.Status).
		Bool("active", sub.Billable()).
		Msg("Subscription state applied")
	return nil
}
