package service

import (
	"context"
	"time"

	"reviewhub/internal/gbp"
	"reviewhub/internal/mailer"
	"reviewhub/internal/model"
	"reviewhub/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TokenSource yields a valid upstream access token for a user.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// ReviewSource lists every upstream review for a location.
type ReviewSource interface {
	ListAllReviews(ctx context.Context, accountID, locationID, token string) (*gbp.ListResult, error)
}

// LocationResult is the per-location outcome of one sync run.
type LocationResult struct {
	Location    string `json:"location"`
	NewReviews  int    `json:"newReviews"`
	TotalSynced int    `json:"totalSynced"`
	Error       string `json:"error,omitempty"`
}

// Report is the sync job's only output.
type Report struct {
	TotalSynced        int              `json:"totalSynced"`
	TotalNew           int              `json:"totalNew"`
	LocationsProcessed int              `json:"locationsProcessed"`
	Results            []LocationResult `json:"results"`
}

// SyncService reconciles upstream reviews into the local store for every
// billable location, once per scheduled run.
type SyncService struct {
	locations    repository.LocationRepository
	reviews      repository.ReviewRepository
	widgets      repository.WidgetRepository
	users        repository.UserRepository
	tokens       TokenSource
	source       ReviewSource
	mail         mailer.Client
	dashboardURL string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewSyncService creates a SyncService with a scoped logger.
func NewSyncService(
	locations repository.LocationRepository,
	reviews repository.ReviewRepository,
	widgets repository.WidgetRepository,
	users repository.UserRepository,
	tokens TokenSource,
	source ReviewSource,
	mail mailer.Client,
	dashboardURL string,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		locations:    locations,
		reviews:      reviews,
		widgets:      widgets,
		users:        users,
		tokens:       tokens,
		source:       source,
		mail:         mail,
		dashboardURL: dashboardURL,
		logger:       logger.With().Str("service", "SyncService").Logger(),
		now:          time.Now,
	}
}

// Run syncs every active location with an active or trialing subscription.
// Locations are grouped by owning user so the token provider is called once
// per user. A token failure marks all of that user's locations as errored
// and the run continues; a fetch or persistence failure is scoped to its
// location. Only the initial locations query can fail the whole run.
func (s *SyncService) Run(ctx context.Context) (*Report, error) {
	locs, err := s.locations.ListSyncable(ctx)
	if err != nil {
		return nil, err
	}

	// Group by user, preserving query order.
	userOrder := make([]string, 0)
	groups := make(map[string][]model.Location)
	for _, loc := range locs {
		if _, ok := groups[loc.UserID]; !ok {
			userOrder = append(userOrder, loc.UserID)
		}
		groups[loc.UserID] = append(groups[loc.UserID], loc)
	}

	report := &Report{Results: []LocationResult{}}
	for _, userID := range userOrder {
		group := groups[userID]

		token, err := s.tokens.AccessToken(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Token fetch failed, skipping user's locations")
			for _, loc := range group {
				report.Results = append(report.Results, LocationResult{Location: loc.Title, Error: err.Error()})
			}
			continue
		}

		var digest []mailer.DigestLocation
		totalNewForUser := 0
		for _, loc := range group {
			res := s.syncLocation(ctx, loc, token)
			report.Results = append(report.Results, res.result)
			report.TotalSynced += res.result.TotalSynced
			report.TotalNew += res.result.NewReviews
			if len(res.newReviews) > 0 {
				digest = append(digest, digestLocation(loc.Title, res.newReviews))
				totalNewForUser += len(res.newReviews)
			}
		}

		if totalNewForUser > 0 {
			s.notify(ctx, userID, totalNewForUser, digest)
		}
	}

	report.LocationsProcessed = len(report.Results)
	s.logger.Info().
		Int("locations", report.LocationsProcessed).
		Int("synced", report.TotalSynced).
		Int("new", report.TotalNew).
		Msg("Sync run finished")
	return report, nil
}

type locationOutcome struct {
	result     LocationResult
	newReviews []model.Review
}

func (s *SyncService) syncLocation(ctx context.Context, loc model.Location, token string) locationOutcome {
	out := locationOutcome{result: LocationResult{Location: loc.Title}}

	fetched, err := s.source.ListAllReviews(ctx, loc.GoogleAccountID, loc.GoogleLocationID, token)
	if err != nil {
		s.logger.Warn().Err(err).Str("location_id", loc.LocationID).Msg("Review fetch failed")
		out.result.Error = err.Error()
		return out
	}

	synced, newReviews, err := s.reconcile(ctx, &loc, fetched)
	if err != nil {
		s.logger.Warn().Err(err).Str("location_id", loc.LocationID).Msg("Reconciliation failed")
		out.result.Error = err.Error()
		return out
	}

	out.result.TotalSynced = synced
	out.result.NewReviews = len(newReviews)
	out.newReviews = newReviews
	return out
}

// reconcile upserts the fetched batch by (location, external id) and writes
// back the location's aggregate rating, count, and last-synced timestamp.
// Running it twice with the same batch is a no-op on already-seen reviews.
func (s *SyncService) reconcile(ctx context.Context, loc *model.Location, fetched *gbp.ListResult) (int, []model.Review, error) {
	settings, err := s.widgets.Get(ctx, loc.LocationID)
	if err != nil {
		return 0, nil, err
	}
	if settings == nil {
		settings = model.DefaultWidgetSettings(loc.LocationID)
	}

	synced := 0
	var newReviews []model.Review
	for _, upstream := range fetched.Reviews {
		existing, err := s.reviews.GetByExternalID(ctx, loc.LocationID, upstream.ReviewID)
		if err != nil {
			return 0, nil, err
		}

		rev := model.Review{
			ReviewID:         uuid.NewString(),
			LocationID:       loc.LocationID,
			GoogleReviewID:   upstream.ReviewID,
			ReviewerName:     upstream.ReviewerName,
			ReviewerPhotoURL: upstream.ReviewerPhotoURL,
			Rating:           upstream.Rating,
			Comment:          optional(upstream.Comment),
			ReplyComment:     optional(upstream.ReplyComment),
			ReplyUpdatedAt:   upstream.ReplyUpdatedAt,
			GoogleCreatedAt:  upstream.CreatedAt,
			GoogleUpdatedAt:  upstream.UpdatedAt,
		}
		if existing == nil {
			// Auto-publish applies to newly seen reviews only; the upsert
			// never touches curation flags on existing rows.
			rev.Published = settings.AutoPublishMinRating > 0 && upstream.Rating >= settings.AutoPublishMinRating
		}
		if err := s.reviews.Upsert(ctx, &rev); err != nil {
			return 0, nil, err
		}

		synced++
		if existing == nil {
			newReviews = append(newReviews, rev)
		}
	}

	avg, count := aggregate(fetched)
	if err := s.locations.UpdateAggregates(ctx, loc.LocationID, avg, count, s.now()); err != nil {
		return 0, nil, err
	}
	return synced, newReviews, nil
}

// aggregate prefers the upstream-reported rating and count; when the
// payload omits them it falls back to the fetched batch's simple average
// and size.
func aggregate(fetched *gbp.ListResult) (*float64, int) {
	avg := fetched.AverageRating
	if avg == nil && len(fetched.Reviews) > 0 {
		sum := 0
		for _, r := range fetched.Reviews {
			sum += r.Rating
		}
		v := float64(sum) / float64(len(fetched.Reviews))
		avg = &v
	}
	if fetched.TotalReviewCount != nil {
		return avg, *fetched.TotalReviewCount
	}
	return avg, len(fetched.Reviews)
}

// notify sends one digest email per user per run. Failure is logged and
// never propagated; sync correctness does not depend on notification.
func (s *SyncService) notify(ctx context.Context, userID string, totalNew int, digest []mailer.DigestLocation) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Could not load user for digest email")
		return
	}
	if !user.NotifyNewReviews {
		return
	}

	data := mailer.DigestData{
		UserName:     user.Name,
		TotalNew:     totalNew,
		Locations:    digest,
		DashboardURL: s.dashboardURL,
	}
	if err := s.mail.Send(ctx, user.Email, mailer.ReviewDigestTemplate, data); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to send review digest email")
	}
}

func digestLocation(title string, reviews []model.Review) mailer.DigestLocation {
	dl := mailer.DigestLocation{Title: title}
	for _, r := range reviews {
		comment := ""
		if r.Comment != nil {
			comment = *r.Comment
		}
		dl.Reviews = append(dl.Reviews, mailer.DigestReview{
			ReviewerName: r.ReviewerName,
			Rating:       r.Rating,
			Comment:      comment,
		})
	}
	return dl
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
