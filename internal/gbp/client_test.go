package gbp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{httpClient: srv.Client(), baseURL: srv.URL}
}

func TestReviewIDFromName(t *testing.T) {
	assert.Equal(t, "r9", ReviewIDFromName("accounts/a1/locations/l1/reviews/r9"))
	assert.Equal(t, "bare", ReviewIDFromName("bare"))
	assert.Equal(t, "", ReviewIDFromName("accounts/a1/reviews/"))
}

func TestStarRatingToInt(t *testing.T) {
	cases := map[string]int{
		"STAR_RATING_UNSPECIFIED": 0,
		"ONE":                     1,
		"TWO":                     2,
		"THREE":                   3,
		"FOUR":                    4,
		"FIVE":                    5,
		"SOMETHING_ELSE":          0,
	}
	for in, want := range cases {
		assert.Equal(t, want, starRatingToInt(in), in)
	}
}

func TestListAllReviewsPaginates(t *testing.T) {
	avg := 4.5
	total := 3
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.Equal(t, "/accounts/a1/locations/l1/reviews", r.URL.Path)
		require.Equal(t, "50", r.URL.Query().Get("pageSize"))

		var page wireReviewPage
		switch r.URL.Query().Get("pageToken") {
		case "":
			page = wireReviewPage{
				Reviews: []wireReview{
					{Name: "accounts/a1/locations/l1/reviews/r1", StarRating: "FIVE", Reviewer: wireReviewer{DisplayName: "Ana"}},
					{Name: "accounts/a1/locations/l1/reviews/r2", StarRating: "THREE", Comment: "ok"},
				},
				AverageRating:    &avg,
				TotalReviewCount: &total,
				NextPageToken:    "cursor-2",
			}
		case "cursor-2":
			page = wireReviewPage{
				Reviews: []wireReview{
					{
						Name:        "accounts/a1/locations/l1/reviews/r3",
						StarRating:  "ONE",
						ReviewReply: &wireReply{Comment: "sorry", UpdateTime: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
					},
				},
			}
		default:
			t.Fatalf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	got, err := testClient(srv).ListAllReviews(context.Background(), "a1", "l1", "tok-1")
	require.NoError(t, err)

	require.Len(t, got.Reviews, 3)
	assert.Equal(t, "r1", got.Reviews[0].ReviewID)
	assert.Equal(t, 5, got.Reviews[0].Rating)
	assert.Equal(t, "Ana", got.Reviews[0].ReviewerName)
	assert.Equal(t, "ok", got.Reviews[1].Comment)
	assert.Equal(t, 1, got.Reviews[2].Rating)
	require.NotNil(t, got.Reviews[2].ReplyUpdatedAt)
	assert.Equal(t, "sorry", got.Reviews[2].ReplyComment)
	require.NotNil(t, got.AverageRating)
	assert.Equal(t, 4.5, *got.AverageRating)
	require.NotNil(t, got.TotalReviewCount)
	assert.Equal(t, 3, *got.TotalReviewCount)
}

func TestListAllReviewsErrorCarriesContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv).ListAllReviews(context.Background(), "a1", "l1", "tok-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accounts/a1/locations/l1")
	assert.Contains(t, err.Error(), "403")
}

func TestUpdateReply(t *testing.T) {
	replied := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/accounts/a1/locations/l1/reviews/r1/reply", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "thanks!", body["comment"])
		fmt.Fprintf(w, `{"comment":"thanks!","updateTime":%q}`, replied.Format(time.RFC3339))
	}))
	defer srv.Close()

	got, err := testClient(srv).UpdateReply(context.Background(), "a1", "l1", "r1", "thanks!", "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(replied))
}

func TestDeleteReply(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, testClient(srv).DeleteReply(context.Background(), "a1", "l1", "r1", "tok-1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/accounts/a1/locations/l1/reviews/r1/reply", path)
}
