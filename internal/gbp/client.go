package gbp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const gbpBaseURL = "https://mybusiness.googleapis.com/v4"

// reviewPageSize is the maximum page size the reviews endpoint accepts.
const reviewPageSize = 50

// Review is one normalized upstream review.
type Review struct {
	// Name is the full upstream resource name
	// (accounts/{a}/locations/{l}/reviews/{r}).
	Name             string
	ReviewID         string
	ReviewerName     string
	ReviewerPhotoURL string
	Rating           int
	Comment          string
	ReplyComment     string
	ReplyUpdatedAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ListResult is the concatenated result of paging through a location's
// reviews. AverageRating and TotalReviewCount are nil when the upstream
// payload omits them.
type ListResult struct {
	Reviews          []Review
	AverageRating    *float64
	TotalReviewCount *int
}

// Client calls the Business Profile v4 review surface, which has no
// generated Go client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a review API client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    gbpBaseURL,
	}
}

type wireReviewer struct {
	ProfilePhotoURL string `json:"profilePhotoUrl"`
	DisplayName     string `json:"displayName"`
}

type wireReply struct {
	Comment    string    `json:"comment"`
	UpdateTime time.Time `json:"updateTime"`
}

type wireReview struct {
	Name        string        `json:"name"`
	Reviewer    wireReviewer  `json:"reviewer"`
	StarRating  string        `json:"starRating"`
	Comment     string        `json:"comment"`
	CreateTime  time.Time     `json:"createTime"`
	UpdateTime  time.Time     `json:"updateTime"`
	ReviewReply *wireReply    `json:"reviewReply,omitempty"`
}

type wireReviewPage struct {
	Reviews          []wireReview `json:"reviews"`
	AverageRating    *float64     `json:"averageRating,omitempty"`
	TotalReviewCount *int         `json:"totalReviewCount,omitempty"`
	NextPageToken    string       `json:"nextPageToken,omitempty"`
}

// The API reports ratings as a named enum, not an integer.
var starRatings = map[string]int{
	"STAR_RATING_UNSPECIFIED": 0,
	"ONE":                     1,
	"TWO":                     2,
	"THREE":                   3,
	"FOUR":                    4,
	"FIVE":                    5,
}

func starRatingToInt(s string) int {
	return starRatings[s]
}

// ReviewIDFromName extracts the stable review id, the trailing segment of
// the resource name.
func ReviewIDFromName(name string) string {
	idx := strings.LastIndex(name, "/")
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

func (r wireReview) normalize() Review {
	rev := Review{
		Name:             r.Name,
		ReviewID:         ReviewIDFromName(r.Name),
		ReviewerName:     r.Reviewer.DisplayName,
		ReviewerPhotoURL: r.Reviewer.ProfilePhotoURL,
		Rating:           starRatingToInt(r.StarRating),
		Comment:          r.Comment,
		CreatedAt:        r.CreateTime,
		UpdatedAt:        r.UpdateTime,
	}
	if r.ReviewReply != nil {
		rev.ReplyComment = r.ReviewReply.Comment
		t := r.ReviewReply.UpdateTime
		rev.ReplyUpdatedAt = &t
	}
	return rev
}

// ListAllReviews pages through the review listing for a location until the
// cursor is exhausted and concatenates the results.
func (c *Client) ListAllReviews(ctx context.Context, accountID, locationID, token string) (*ListResult, error) {
	result := &ListResult{}
	pageToken := ""
	for {
		url := fmt.Sprintf("%s/accounts/%s/locations/%s/reviews?pageSize=%d", c.baseURL, accountID, locationID, reviewPageSize)
		if pageToken != "" {
			url += "&pageToken=" + pageToken
		}
		page, err := c.fetchPage(ctx, url, token)
		if err != nil {
			return nil, fmt.Errorf("list reviews for accounts/%s/locations/%s: %w", accountID, locationID, err)
		}
		for _, wr := range page.Reviews {
			result.Reviews = append(result.Reviews, wr.normalize())
		}
		if page.AverageRating != nil {
			result.AverageRating = page.AverageRating
		}
		if page.TotalReviewCount != nil {
			result.TotalReviewCount = page.TotalReviewCount
		}
		if page.NextPageToken == "" {
			return result, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *Client) fetchPage(ctx context.Context, url, token string) (*wireReviewPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var page wireReviewPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode review page: %w", err)
	}
	return &page, nil
}

// UpdateReply writes a reply to a review upstream and returns its update
// time as reported by the API.
func (c *Client) UpdateReply(ctx context.Context, accountID, locationID, reviewID, comment, token string) (*time.Time, error) {
	url := fmt.Sprintf("%s/accounts/%s/locations/%s/reviews/%s/reply", c.baseURL, accountID, locationID, reviewID)
	payload, err := json.Marshal(map[string]string{"comment": comment})
	if err != nil {
		return nil, fmt.Errorf("marshal reply: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("update reply for review %s: %w", reviewID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("update reply for review %s: unexpected status %d: %s", reviewID, resp.StatusCode, string(body))
	}

	var reply wireReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	t := reply.UpdateTime
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return &t, nil
}

// DeleteReply removes the reply to a review upstream.
func (c *Client) DeleteReply(ctx context.Context, accountID, locationID, reviewID, token string) error {
	url := fmt.Sprintf("%s/accounts/%s/locations/%s/reviews/%s/reply", c.baseURL, accountID, locationID, reviewID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete reply for review %s: %w", reviewID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete reply for review %s: unexpected status %d: %s", reviewID, resp.StatusCode, string(body))
	}
	return nil
}
