package service

import (
	"context"
	"fmt"
	"time"

	"reviewhub/internal/gbp"
	"reviewhub/internal/model"
	"reviewhub/internal/repository"
)

// In-memory fakes shared by the service tests.

type fakeLocationRepo struct {
	byID       map[string]*model.Location
	syncable   []model.Location
	aggregates map[string]struct {
		avg      *float64
		count    int
		syncedAt time.Time
	}
	active map[string]bool
}

func newFakeLocationRepo(locs ...*model.Location) *fakeLocationRepo {
	r := &fakeLocationRepo{
		byID: map[string]*model.Location{},
		aggregates: map[string]struct {
			avg      *float64
			count    int
			syncedAt time.Time
		}{},
		active: map[string]bool{},
	}
	for _, l := range locs {
		r.byID[l.LocationID] = l
	}
	return r
}

func (r *fakeLocationRepo) Upsert(ctx context.Context, loc *model.Location) error {
	r.byID[loc.LocationID] = loc
	return nil
}

func (r *fakeLocationRepo) GetByID(ctx context.Context, locationID string) (*model.Location, error) {
	return r.byID[locationID], nil
}

func (r *fakeLocationRepo) GetByIDForUser(ctx context.Context, locationID, userID string) (*model.Location, error) {
	loc := r.byID[locationID]
	if loc == nil || loc.UserID != userID {
		return nil, nil
	}
	return loc, nil
}

func (r *fakeLocationRepo) GetByWidgetKey(ctx context.Context, widgetKey string) (*model.Location, error) {
	for _, loc := range r.byID {
		if loc.WidgetKey == widgetKey {
			return loc, nil
		}
	}
	return nil, nil
}

func (r *fakeLocationRepo) ListByUser(ctx context.Context, userID string) ([]model.Location, error) {
	var out []model.Location
	for _, loc := range r.byID {
		if loc.UserID == userID {
			out = append(out, *loc)
		}
	}
	return out, nil
}

func (r *fakeLocationRepo) ListSyncable(ctx context.Context) ([]model.Location, error) {
	return r.syncable, nil
}

func (r *fakeLocationRepo) UpdateTitle(ctx context.Context, locationID, title string) error {
	r.byID[locationID].Title = title
	return nil
}

func (r *fakeLocationRepo) UpdateAggregates(ctx context.Context, locationID string, avgRating *float64, reviewCount int, syncedAt time.Time) error {
	r.aggregates[locationID] = struct {
		avg      *float64
		count    int
		syncedAt time.Time
	}{avgRating, reviewCount, syncedAt}
	return nil
}

func (r *fakeLocationRepo) SetActive(ctx context.Context, locationID string, active bool) error {
	r.active[locationID] = active
	if loc := r.byID[locationID]; loc != nil {
		loc.Active = active
	}
	return nil
}

type fakeReviewRepo struct {
	rows    []*model.Review
	upserts int
	// locs enables the ownership join GetByIDForUser performs in SQL.
	locs *fakeLocationRepo
}

func (r *fakeReviewRepo) find(locationID, googleReviewID string) *model.Review {
	for _, row := range r.rows {
		if row.LocationID == locationID && row.GoogleReviewID == googleReviewID {
			return row
		}
	}
	return nil
}

func (r *fakeReviewRepo) GetByExternalID(ctx context.Context, locationID, googleReviewID string) (*model.Review, error) {
	row := r.find(locationID, googleReviewID)
	if row == nil {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *fakeReviewRepo) GetByIDForUser(ctx context.Context, reviewID, userID string) (*model.Review, error) {
	for _, row := range r.rows {
		if row.ReviewID != reviewID {
			continue
		}
		if r.locs != nil {
			loc := r.locs.byID[row.LocationID]
			if loc == nil || loc.UserID != userID {
				return nil, nil
			}
		}
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

// Upsert mirrors the row semantics of the SQL version: content fields track
// the latest input, curation flags and the row id survive a conflict.
func (r *fakeReviewRepo) Upsert(ctx context.Context, rev *model.Review) error {
	r.upserts++
	existing := r.find(rev.LocationID, rev.GoogleReviewID)
	if existing == nil {
		cp := *rev
		r.rows = append(r.rows, &cp)
		return nil
	}
	existing.ReviewerName = rev.ReviewerName
	existing.ReviewerPhotoURL = rev.ReviewerPhotoURL
	existing.Rating = rev.Rating
	existing.Comment = rev.Comment
	existing.ReplyComment = rev.ReplyComment
	existing.ReplyUpdatedAt = rev.ReplyUpdatedAt
	existing.GoogleUpdatedAt = rev.GoogleUpdatedAt
	*rev = *existing
	return nil
}

func (r *fakeReviewRepo) ListByLocation(ctx context.Context, locationID string, f repository.ReviewFilter) ([]model.Review, error) {
	var out []model.Review
	for _, row := range r.rows {
		if row.LocationID != locationID {
			continue
		}
		if f.Published != nil && row.Published != *f.Published {
			continue
		}
		if row.Rating < f.MinRating {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (r *fakeReviewRepo) ListPublished(ctx context.Context, locationID string, minRating, limit int) ([]model.Review, error) {
	var out []model.Review
	for _, row := range r.rows {
		if row.LocationID == locationID && row.Published && row.Rating >= minRating {
			out = append(out, *row)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) UpdateReply(ctx context.Context, reviewID string, comment *string) error {
	for _, row := range r.rows {
		if row.ReviewID == reviewID {
			row.ReplyComment = comment
			if comment != nil {
				t := time.Now().UTC()
				row.ReplyUpdatedAt = &t
			} else {
				row.ReplyUpdatedAt = nil
			}
			return nil
		}
	}
	return fmt.Errorf("review %s not found", reviewID)
}

func (r *fakeReviewRepo) SetPublished(ctx context.Context, reviewID string, published bool) error {
	for _, row := range r.rows {
		if row.ReviewID == reviewID {
			row.Published = published
			return nil
		}
	}
	return fmt.Errorf("review %s not found", reviewID)
}

func (r *fakeReviewRepo) SetFeatured(ctx context.Context, reviewID string, featured bool) error {
	for _, row := range r.rows {
		if row.ReviewID == reviewID {
			row.Featured = featured
			return nil
		}
	}
	return fmt.Errorf("review %s not found", reviewID)
}

type fakeWidgetRepo struct {
	settings map[string]*model.WidgetSettings
}

func (r *fakeWidgetRepo) Get(ctx context.Context, locationID string) (*model.WidgetSettings, error) {
	if r.settings == nil {
		return nil, nil
	}
	return r.settings[locationID], nil
}

func (r *fakeWidgetRepo) Upsert(ctx context.Context, ws *model.WidgetSettings) error {
	if r.settings == nil {
		r.settings = map[string]*model.WidgetSettings{}
	}
	r.settings[ws.LocationID] = ws
	return nil
}

type fakeUserRepo struct {
	users map[string]*model.User
}

func (r *fakeUserRepo) UpsertByEmail(ctx context.Context, u *model.User) error {
	if r.users == nil {
		r.users = map[string]*model.User{}
	}
	r.users[u.UserID] = u
	return nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	for _, u := range r.users {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	r.users[userID].StripeCustomerID = &customerID
	return nil
}

type fakeSubscriptionRepo struct {
	byLocation map[string]*model.Subscription
}

func (r *fakeSubscriptionRepo) GetByLocation(ctx context.Context, locationID string) (*model.Subscription, error) {
	return r.byLocation[locationID], nil
}

func (r *fakeSubscriptionRepo) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	for _, s := range r.byLocation {
		if s.StripeSubscriptionID == stripeSubscriptionID {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) Upsert(ctx context.Context, sub *model.Subscription) error {
	if r.byLocation == nil {
		r.byLocation = map[string]*model.Subscription{}
	}
	r.byLocation[sub.LocationID] = sub
	return nil
}

type fakeTokenSource struct {
	tokens map[string]string
	errs   map[string]error
}

func (f *fakeTokenSource) AccessToken(ctx context.Context, userID string) (string, error) {
	if err := f.errs[userID]; err != nil {
		return "", err
	}
	tok, ok := f.tokens[userID]
	if !ok {
		return "", fmt.Errorf("no token stubbed for user %s", userID)
	}
	return tok, nil
}

type fakeReviewSource struct {
	results map[string]*gbp.ListResult
	errs    map[string]error
}

func sourceKey(accountID, locationID string) string {
	return accountID + "/" + locationID
}

func (f *fakeReviewSource) ListAllReviews(ctx context.Context, accountID, locationID, token string) (*gbp.ListResult, error) {
	key := sourceKey(accountID, locationID)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	res, ok := f.results[key]
	if !ok {
		return nil, fmt.Errorf("no reviews stubbed for %s", key)
	}
	return res, nil
}

type sentMail struct {
	to       string
	template string
	data     any
}

type fakeMailer struct {
	sent []sentMail
}

func (f *fakeMailer) Send(ctx context.Context, to, templateFile string, data any) error {
	f.sent = append(f.sent, sentMail{to: to, template: templateFile, data: data})
	return nil
}
