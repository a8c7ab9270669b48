package service

import (
	"context"
	"fmt"

	"reviewhub/internal/gbp"
	"reviewhub/internal/model"
	"reviewhub/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountDirectory discovers the Business Profile accounts and locations an
// access token can manage.
type AccountDirectory interface {
	ListAccounts(ctx context.Context, token string) ([]gbp.Account, error)
	ListLocations(ctx context.Context, accountID, token string) ([]gbp.DiscoveredLocation, error)
}

// ImportResult describes what an import run found.
type ImportResult struct {
	Imported []model.Location `json:"imported"`
	Errors   []string         `json:"errors,omitempty"`
}

// LocationService manages the user's business locations.
type LocationService struct {
	locations     repository.LocationRepository
	subscriptions repository.SubscriptionRepository
	tokens        TokenSource
	directory     AccountDirectory
	logger        zerolog.Logger
}

// NewLocationService creates a LocationService with a scoped logger.
func NewLocationService(
	locations repository.LocationRepository,
	subscriptions repository.SubscriptionRepository,
	tokens TokenSource,
	directory AccountDirectory,
	logger zerolog.Logger,
) *LocationService {
	return &LocationService{
		locations:     locations,
		subscriptions: subscriptions,
		tokens:        tokens,
		directory:     directory,
		logger:        logger.With().Str("service", "LocationService").Logger(),
	}
}

// Import discovers the user's accounts and locations upstream and upserts a
// Location row for each. Locations are always listed under an explicit
// account; one account's listing failure is recorded and does not abort the
// others.
func (s *LocationService) Import(ctx context.Context, userID string) (*ImportResult, error) {
	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	accounts, err := s.directory.ListAccounts(ctx, token)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, acct := range accounts {
		discovered, err := s.directory.ListLocations(ctx, acct.AccountID, token)
		if err != nil {
			s.logger.Warn().Err(err).Str("account_id", acct.AccountID).Msg("Location listing failed for account")
			result.Errors = append(result.Errors, fmt.Sprintf("account %s: %v", acct.AccountID, err))
			continue
		}
		for _, d := range discovered {
			loc := model.Location{
				LocationID:       uuid.NewString(),
				UserID:           userID,
				GoogleAccountID:  d.AccountID,
				GoogleLocationID: d.LocationID,
				Title:            d.Title,
				WidgetKey:        uuid.NewString(),
			}
			if err := s.locations.Upsert(ctx, &loc); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("location %s: %v", d.LocationID, err))
				continue
			}
			result.Imported = append(result.Imported, loc)
		}
	}
	return result, nil
}

// LocationWithBilling pairs a location with its billing state for listings.
type LocationWithBilling struct {
	model.Location
	Subscription *model.Subscription `json:"subscription,omitempty"`
}

// List returns the user's locations with their subscription state.
func (s *LocationService) List(ctx context.Context, userID string) ([]LocationWithBilling, error) {
	locs, err := s.locations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]LocationWithBilling, 0, len(locs))
	for _, loc := range locs {
		sub, err := s.subscriptions.GetByLocation(ctx, loc.LocationID)
		if err != nil {
			return nil, err
		}
		out = append(out, LocationWithBilling{Location: loc, Subscription: sub})
	}
	return out, nil
}

// Get returns one location owned by the user.
func (s *LocationService) Get(ctx context.Context, userID, locationID string) (*model.Location, error) {
	loc, err := s.locations.GetByIDForUser(ctx, locationID, userID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrNotFound
	}
	return loc, nil
}

// UpdateTitle renames a location on the dashboard.
func (s *LocationService) UpdateTitle(ctx context.Context, userID, locationID, title string) (*model.Location, error) {
	loc, err := s.Get(ctx, userID, locationID)
	if err != nil {
		return nil, err
	}
	if err := s.locations.UpdateTitle(ctx, loc.LocationID, title); err != nil {
		return nil, err
	}
	loc.Title = title
	return loc, nil
}
