package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reviewhub/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReplyWriter struct {
	updates []string
	deletes []string
	err     error
}

func (f *fakeReplyWriter) UpdateReply(ctx context.Context, accountID, locationID, reviewID, comment, token string) (*time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updates = append(f.updates, reviewID)
	t := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	return &t, nil
}

func (f *fakeReplyWriter) DeleteReply(ctx context.Context, accountID, locationID, reviewID, token string) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, reviewID)
	return nil
}

func newReviewFixture(t *testing.T) (*ReviewService, *fakeReviewRepo, *fakeReplyWriter) {
	t.Helper()
	locations := newFakeLocationRepo(&model.Location{
		LocationID: "L1", UserID: "u1", GoogleAccountID: "a1", GoogleLocationID: "g1",
	})
	reviews := &fakeReviewRepo{locs: locations}
	reviews.rows = append(reviews.rows, &model.Review{
		ReviewID: "r1", LocationID: "L1", GoogleReviewID: "g-r1", Rating: 4,
	})
	writer := &fakeReplyWriter{}
	tokens := &fakeTokenSource{tokens: map[string]string{"u1": "tok"}, errs: map[string]error{}}
	svc := NewReviewService(reviews, locations, tokens, writer, zerolog.Nop())
	return svc, reviews, writer
}

func TestReplyWritesThroughUpstreamFirst(t *testing.T) {
	svc, reviews, writer := newReviewFixture(t)

	rev, err := svc.Reply(context.Background(), "u1", "r1", "thank you!")
	require.NoError(t, err)

	assert.Equal(t, []string{"g-r1"}, writer.updates)
	require.NotNil(t, rev.ReplyComment)
	assert.Equal(t, "thank you!", *rev.ReplyComment)
	require.NotNil(t, reviews.rows[0].ReplyComment)
	assert.Equal(t, "thank you!", *reviews.rows[0].ReplyComment)
}

func TestReplyUpstreamFailureLeavesRowUntouched(t *testing.T) {
	svc, reviews, writer := newReviewFixture(t)
	writer.err = errors.New("upstream 500")

	_, err := svc.Reply(context.Background(), "u1", "r1", "thank you!")
	require.Error(t, err)
	assert.Nil(t, reviews.rows[0].ReplyComment)
}

func TestReplyRejectsForeignReview(t *testing.T) {
	svc, _, writer := newReviewFixture(t)

	_, err := svc.Reply(context.Background(), "intruder", "r1", "hi")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, writer.updates)
}

func TestDeleteReplyClearsLocalRow(t *testing.T) {
	svc, reviews, writer := newReviewFixture(t)
	comment := "old reply"
	reviews.rows[0].ReplyComment = &comment

	rev, err := svc.DeleteReply(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"g-r1"}, writer.deletes)
	assert.Nil(t, rev.ReplyComment)
	assert.Nil(t, reviews.rows[0].ReplyComment)
}

func TestSetPublished(t *testing.T) {
	svc, reviews, _ := newReviewFixture(t)

	rev, err := svc.SetPublished(context.Background(), "u1", "r1", true)
	require.NoError(t, err)
	assert.True(t, rev.Published)
	assert.NotNil(t, rev.PublishedAt)
	assert.True(t, reviews.rows[0].Published)

	rev, err = svc.SetPublished(context.Background(), "u1", "r1", false)
	require.NoError(t, err)
	assert.False(t, rev.Published)
	assert.Nil(t, rev.PublishedAt)
}

func TestSetFeatured(t *testing.T) {
	svc, reviews, _ := newReviewFixture(t)

	rev, err := svc.SetFeatured(context.Background(), "u1", "r1", true)
	require.NoError(t, err)
	assert.True(t, rev.Featured)
	assert.True(t, reviews.rows[0].Featured)
}
