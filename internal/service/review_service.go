package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewhub/internal/model"
	"reviewhub/internal/repository"

	"github.com/rs/zerolog"
)

// ErrNotFound means the requested entity does not exist or is not owned by
// the requesting user.
var ErrNotFound = errors.New("not found")

// ReplyWriter writes review replies through to the upstream review source.
type ReplyWriter interface {
	UpdateReply(ctx context.Context, accountID, locationID, reviewID, comment, token string) (*time.Time, error)
	DeleteReply(ctx context.Context, accountID, locationID, reviewID, token string) error
}

// ReviewService implements the dashboard's review actions: reply
// write-through, publish/unpublish, and feature.
type ReviewService struct {
	reviews   repository.ReviewRepository
	locations repository.LocationRepository
	tokens    TokenSource
	writer    ReplyWriter
	logger    zerolog.Logger
}

// NewReviewService creates a ReviewService with a scoped logger.
func NewReviewService(
	reviews repository.ReviewRepository,
	locations repository.LocationRepository,
	tokens TokenSource,
	writer ReplyWriter,
	logger zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		locations: locations,
		tokens:    tokens,
		writer:    writer,
		logger:    logger.With().Str("service", "ReviewService").Logger(),
	}
}

// ListByLocation returns the local reviews of a location owned by the user.
func (s *ReviewService) ListByLocation(ctx context.Context, userID, locationID string, f repository.ReviewFilter) ([]model.Review, error) {
	loc, err := s.locations.GetByIDForUser(ctx, locationID, userID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrNotFound
	}
	return s.reviews.ListByLocation(ctx, locationID, f)
}

// Get returns a review and its location when the user owns them.
func (s *ReviewService) Get(ctx context.Context, userID, reviewID string) (*model.Review, *model.Location, error) {
	return s.ownedReview(ctx, userID, reviewID)
}

// ownedReview loads a review together with its location, checking the user
// owns it.
func (s *ReviewService) ownedReview(ctx context.Context, userID, reviewID string) (*model.Review, *model.Location, error) {
	rev, err := s.reviews.GetByIDForUser(ctx, reviewID, userID)
	if err != nil {
		return nil, nil, err
	}
	if rev == nil {
		return nil, nil, ErrNotFound
	}
	loc, err := s.locations.GetByID(ctx, rev.LocationID)
	if err != nil {
		return nil, nil, err
	}
	if loc == nil {
		return nil, nil, ErrNotFound
	}
	return rev, loc, nil
}

// Reply writes a reply upstream and, only once that succeeds, mirrors it on
// the local row.
func (s *ReviewService) Reply(ctx context.Context, userID, reviewID, comment string) (*model.Review, error) {
	rev, loc, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	repliedAt, err := s.writer.UpdateReply(ctx, loc.GoogleAccountID, loc.GoogleLocationID, rev.GoogleReviewID, comment, token)
	if err != nil {
		return nil, fmt.Errorf("write reply upstream: %w", err)
	}

	if err := s.reviews.UpdateReply(ctx, rev.ReviewID, &comment); err != nil {
		return nil, err
	}
	rev.ReplyComment = &comment
	rev.ReplyUpdatedAt = repliedAt
	return rev, nil
}

// DeleteReply removes a reply upstream and then locally.
func (s *ReviewService) DeleteReply(ctx context.Context, userID, reviewID string) (*model.Review, error) {
	rev, loc, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.writer.DeleteReply(ctx, loc.GoogleAccountID, loc.GoogleLocationID, rev.GoogleReviewID, token); err != nil {
		return nil, fmt.Errorf("delete reply upstream: %w", err)
	}

	if err := s.reviews.UpdateReply(ctx, rev.ReviewID, nil); err != nil {
		return nil, err
	}
	rev.ReplyComment = nil
	rev.ReplyUpdatedAt = nil
	return rev, nil
}

// SetPublished toggles a review's visibility on the public widget.
func (s *ReviewService) SetPublished(ctx context.Context, userID, reviewID string, published bool) (*model.Review, error) {
	rev, _, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.SetPublished(ctx, rev.ReviewID, published); err != nil {
		return nil, err
	}
	rev.Published = published
	if published {
		now := time.Now().UTC()
		rev.PublishedAt = &now
	} else {
		rev.PublishedAt = nil
	}
	return rev, nil
}

// SetFeatured pins or unpins a review at the top of the widget.
func (s *ReviewService) SetFeatured(ctx context.Context, userID, reviewID string, featured bool) (*model.Review, error) {
	rev, _, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.SetFeatured(ctx, rev.ReviewID, featured); err != nil {
		return nil, err
	}
	rev.Featured = featured
	return rev, nil
}
