package service

import (
	"context"
	"time"

	"reviewhub/internal/model"
	"reviewhub/internal/repository"

	"github.com/rs/zerolog"
)

// widgetReviewLimit caps how many reviews the public widget serves.
const widgetReviewLimit = 25

// WidgetReview is the public shape of a published review. Fields the
// settings hide are zeroed before serialization.
type WidgetReview struct {
	ReviewerName     string     `json:"reviewer_name"`
	ReviewerPhotoURL string     `json:"reviewer_photo_url,omitempty"`
	Rating           int        `json:"rating"`
	Comment          string     `json:"comment,omitempty"`
	ReplyComment     string     `json:"reply_comment,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	Featured         bool       `json:"featured"`
}

// WidgetPayload is everything the embed endpoints serve for one location.
type WidgetPayload struct {
	BusinessName  string                `json:"business_name"`
	AverageRating *float64              `json:"average_rating,omitempty"`
	ReviewCount   int                   `json:"review_count"`
	Settings      *model.WidgetSettings `json:"settings"`
	Reviews       []WidgetReview        `json:"reviews"`
}

// WidgetService serves widget settings to the dashboard and the public
// payload to the embed endpoints.
type WidgetService struct {
	widgets       repository.WidgetRepository
	locations     repository.LocationRepository
	reviews       repository.ReviewRepository
	subscriptions repository.SubscriptionRepository
	logger        zerolog.Logger
}

// NewWidgetService creates a WidgetService with a scoped logger.
func NewWidgetService(
	widgets repository.WidgetRepository,
	locations repository.LocationRepository,
	reviews repository.ReviewRepository,
	subscriptions repository.SubscriptionRepository,
	logger zerolog.Logger,
) *WidgetService {
	return &WidgetService{
		widgets:       widgets,
		locations:     locations,
		reviews:       reviews,
		subscriptions: subscriptions,
		logger:        logger.With().Str("service", "WidgetService").Logger(),
	}
}

// Settings returns the saved settings for a location owned by the user, or
// the in-memory defaults when none were saved yet.
func (s *WidgetService) Settings(ctx context.Context, userID, locationID string) (*model.WidgetSettings, error) {
	loc, err := s.locations.GetByIDForUser(ctx, locationID, userID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrNotFound
	}
	ws, err := s.widgets.Get(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		ws = model.DefaultWidgetSettings(locationID)
	}
	return ws, nil
}

// SaveSettings persists settings for a location owned by the user.
func (s *WidgetService) SaveSettings(ctx context.Context, userID string, ws *model.WidgetSettings) (*model.WidgetSettings, error) {
	loc, err := s.locations.GetByIDForUser(ctx, ws.LocationID, userID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrNotFound
	}
	if err := s.widgets.Upsert(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// PublicPayload serves the published reviews for a widget key. It refuses
// inactive locations and locations without a billable subscription, so a
// lapsed customer's widget goes dark.
func (s *WidgetService) PublicPayload(ctx context.Context, widgetKey string) (*WidgetPayload, error) {
	loc, err := s.locations.GetByWidgetKey(ctx, widgetKey)
	if err != nil {
		return nil, err
	}
	if loc == nil || !loc.Active {
		return nil, ErrNotFound
	}
	sub, err := s.subscriptions.GetByLocation(ctx, loc.LocationID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.Billable() {
		return nil, ErrNotFound
	}

	ws, err := s.widgets.Get(ctx, loc.LocationID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		ws = model.DefaultWidgetSettings(loc.LocationID)
	}

	reviews, err := s.reviews.ListPublished(ctx, loc.LocationID, ws.MinRating, widgetReviewLimit)
	if err != nil {
		return nil, err
	}

	payload := &WidgetPayload{
		BusinessName:  loc.Title,
		AverageRating: loc.AverageRating,
		ReviewCount:   loc.ReviewCount,
		Settings:      ws,
		Reviews:       make([]WidgetReview, 0, len(reviews)),
	}
	for _, r := range reviews {
		wr := WidgetReview{
			ReviewerName: r.ReviewerName,
			Rating:       r.Rating,
			Featured:     r.Featured,
		}
		if r.Comment != nil {
			wr.Comment = *r.Comment
		}
		if ws.ShowReviewerPhoto {
			wr.ReviewerPhotoURL = r.ReviewerPhotoURL
		}
		if ws.ShowDates {
			t := r.GoogleCreatedAt
			wr.CreatedAt = &t
		}
		if ws.ShowReplies && r.ReplyComment != nil {
			wr.ReplyComment = *r.ReplyComment
		}
		payload.Reviews = append(payload.Reviews, wr)
	}
	return payload, nil
}
