package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reviewhub/internal/gbp"
	"reviewhub/internal/mailer"
	"reviewhub/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syncNow = time.Date(2026, 7, 1, 3, 0, 0, 0, time.UTC)

type syncFixture struct {
	locations *fakeLocationRepo
	reviews   *fakeReviewRepo
	widgets   *fakeWidgetRepo
	users     *fakeUserRepo
	tokens    *fakeTokenSource
	source    *fakeReviewSource
	mail      *fakeMailer
	svc       *SyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	f := &syncFixture{
		locations: newFakeLocationRepo(),
		reviews:   &fakeReviewRepo{},
		widgets:   &fakeWidgetRepo{},
		users:     &fakeUserRepo{users: map[string]*model.User{}},
		tokens:    &fakeTokenSource{tokens: map[string]string{}, errs: map[string]error{}},
		source:    &fakeReviewSource{results: map[string]*gbp.ListResult{}, errs: map[string]error{}},
		mail:      &fakeMailer{},
	}
	f.svc = NewSyncService(f.locations, f.reviews, f.widgets, f.users, f.tokens, f.source, f.mail, "https://app.reviewhub.test", zerolog.Nop())
	f.svc.now = func() time.Time { return syncNow }
	return f
}

func (f *syncFixture) addUser(id string, notify bool) {
	f.users.users[id] = &model.User{UserID: id, Name: "User " + id, Email: id + "@example.com", NotifyNewReviews: notify}
	f.tokens.tokens[id] = "tok-" + id
}

func (f *syncFixture) addLocation(id, userID, title string) model.Location {
	loc := model.Location{LocationID: id, UserID: userID, GoogleAccountID: "acct-" + userID, GoogleLocationID: "g-" + id, Title: title, Active: true}
	f.locations.syncable = append(f.locations.syncable, loc)
	f.locations.byID[id] = &loc
	return loc
}

func upstreamReview(id string, rating int, comment string) gbp.Review {
	return gbp.Review{
		Name:         "accounts/a/locations/l/reviews/" + id,
		ReviewID:     id,
		ReviewerName: "Reviewer " + id,
		Rating:       rating,
		Comment:      comment,
		CreatedAt:    syncNow.Add(-24 * time.Hour),
		UpdatedAt:    syncNow.Add(-time.Hour),
	}
}

func TestRunSyncsAndReports(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", true)
	f.addLocation("L1", "u1", "Cafe Uno")
	f.addLocation("L2", "u1", "Cafe Dos")

	// L1 already knows three of its four reviews.
	for _, id := range []string{"r1", "r2", "r3"} {
		f.reviews.rows = append(f.reviews.rows, &model.Review{ReviewID: "row-" + id, LocationID: "L1", GoogleReviewID: id, Rating: 4})
	}
	f.source.results[sourceKey("acct-u1", "g-L1")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("r1", 4, "good"),
		upstreamReview("r2", 5, "great"),
		upstreamReview("r3", 3, ""),
		upstreamReview("r4", 5, "new one"),
	}}
	f.source.results[sourceKey("acct-u1", "g-L2")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("s1", 2, "meh"),
		upstreamReview("s2", 5, "lovely"),
	}}

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, report.TotalSynced)
	assert.Equal(t, 3, report.TotalNew)
	assert.Equal(t, 2, report.LocationsProcessed)
	require.Len(t, report.Results, 2)
	assert.Equal(t, LocationResult{Location: "Cafe Uno", NewReviews: 1, TotalSynced: 4}, report.Results[0])
	assert.Equal(t, LocationResult{Location: "Cafe Dos", NewReviews: 2, TotalSynced: 2}, report.Results[1])

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "u1@example.com", f.mail.sent[0].to)
	assert.Equal(t, mailer.ReviewDigestTemplate, f.mail.sent[0].template)
	data := f.mail.sent[0].data.(mailer.DigestData)
	assert.Equal(t, 3, data.TotalNew)
	require.Len(t, data.Locations, 2)
}

func TestRunIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", true)
	f.addLocation("L1", "u1", "Cafe Uno")
	f.source.results[sourceKey("acct-u1", "g-L1")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("r1", 5, "great"),
		upstreamReview("r2", 4, "good"),
	}}

	first, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalNew)

	second, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.TotalSynced)
	assert.Equal(t, 0, second.TotalNew)
	assert.Len(t, f.reviews.rows, 2)
	// Only the first run had anything to announce.
	assert.Len(t, f.mail.sent, 1)
}

func TestRunTokenFailureSkipsOnlyThatUser(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", true)
	f.addUser("u2", true)
	f.tokens.errs["u1"] = gbp.ErrAuthExpired
	f.addLocation("L1", "u1", "Cafe Uno")
	f.addLocation("L2", "u1", "Cafe Dos")
	f.addLocation("L3", "u2", "Cafe Tres")
	f.source.results[sourceKey("acct-u2", "g-L3")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("t1", 5, "fine"),
	}}

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.LocationsProcessed)
	assert.NotEmpty(t, report.Results[0].Error)
	assert.NotEmpty(t, report.Results[1].Error)
	assert.Empty(t, report.Results[2].Error)
	assert.Equal(t, 1, report.TotalSynced)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "u2@example.com", f.mail.sent[0].to)
}

func TestRunFetchFailureScopedToLocation(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", true)
	f.addLocation("L1", "u1", "Cafe Uno")
	f.addLocation("L2", "u1", "Cafe Dos")
	f.source.errs[sourceKey("acct-u1", "g-L1")] = errors.New("upstream 500")
	f.source.results[sourceKey("acct-u1", "g-L2")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("s1", 5, "fine"),
	}}

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Contains(t, report.Results[0].Error, "upstream 500")
	assert.Equal(t, 1, report.Results[1].TotalSynced)
	assert.Equal(t, 1, report.TotalSynced)
}

func TestRunSkipsDigestWhenNothingNew(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", true)
	f.addLocation("L1", "u1", "Cafe Uno")
	f.reviews.rows = append(f.reviews.rows, &model.Review{ReviewID: "row-r1", LocationID: "L1", GoogleReviewID: "r1", Rating: 5})
	f.source.results[sourceKey("acct-u1", "g-L1")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("r1", 5, "still great"),
	}}

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalNew)
	assert.Empty(t, f.mail.sent)
}

func TestRunHonorsNotificationOptOut(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", false)
	f.addLocation("L1", "u1", "Cafe Uno")
	f.source.results[sourceKey("acct-u1", "g-L1")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("r1", 5, "great"),
	}}

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalNew)
	assert.Empty(t, f.mail.sent)
}

func TestRunPrefersUpstreamAggregates(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", true)
	f.addLocation("L1", "u1", "Cafe Uno")
	avg := 4.8
	count := 120
	f.source.results[sourceKey("acct-u1", "g-L1")] = &gbp.ListResult{
		Reviews:          []gbp.Review{upstreamReview("r1", 5, "great")},
		AverageRating:    &avg,
		TotalReviewCount: &count,
	}

	_, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	got := f.locations.aggregates["L1"]
	require.NotNil(t, got.avg)
	assert.Equal(t, 4.8, *got.avg)
	assert.Equal(t, 120, got.count)
	assert.Equal(t, syncNow, got.syncedAt)
}

func TestRunFallsBackToBatchAggregates(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", true)
	f.addLocation("L1", "u1", "Cafe Uno")
	f.source.results[sourceKey("acct-u1", "g-L1")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("r1", 5, ""),
		upstreamReview("r2", 2, ""),
	}}

	_, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	got := f.locations.aggregates["L1"]
	require.NotNil(t, got.avg)
	assert.InDelta(t, 3.5, *got.avg, 0.001)
	assert.Equal(t, 2, got.count)
}

func TestRunAutoPublishesNewReviewsOnly(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", true)
	f.addLocation("L1", "u1", "Cafe Uno")
	// Existing low review that was manually published stays published;
	// existing high review stays unpublished.
	f.reviews.rows = append(f.reviews.rows,
		&model.Review{ReviewID: "row-old-low", LocationID: "L1", GoogleReviewID: "old-low", Rating: 2, Published: true},
		&model.Review{ReviewID: "row-old-high", LocationID: "L1", GoogleReviewID: "old-high", Rating: 5, Published: false},
	)
	f.source.results[sourceKey("acct-u1", "g-L1")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("old-low", 2, "bad"),
		upstreamReview("old-high", 5, "great"),
		upstreamReview("new-high", 5, "love it"),
		upstreamReview("new-low", 2, "nope"),
	}}

	_, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, f.reviews.find("L1", "old-low").Published)
	assert.False(t, f.reviews.find("L1", "old-high").Published)
	assert.True(t, f.reviews.find("L1", "new-high").Published, "meets the default auto-publish threshold")
	assert.False(t, f.reviews.find("L1", "new-low").Published)
}

func TestRunRespectsSavedAutoPublishThreshold(t *testing.T) {
	f := newSyncFixture(t)
	f.addUser("u1", true)
	f.addLocation("L1", "u1", "Cafe Uno")
	ws := model.DefaultWidgetSettings("L1")
	ws.AutoPublishMinRating = 0 // disabled
	f.widgets.settings = map[string]*model.WidgetSettings{"L1": ws}
	f.source.results[sourceKey("acct-u1", "g-L1")] = &gbp.ListResult{Reviews: []gbp.Review{
		upstreamReview("r1", 5, "great"),
	}}

	_, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, f.reviews.find("L1", "r1").Published)
}
