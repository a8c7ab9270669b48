package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReviewDigest(t *testing.T) {
	data := DigestData{
		UserName: "Dana",
		TotalNew: 3,
		Locations: []DigestLocation{
			{
				Title: "Cafe Uno",
				Reviews: []DigestReview{
					{ReviewerName: "Ana", Rating: 5, Comment: "Loved the espresso"},
					{ReviewerName: "Ben", Rating: 2},
				},
			},
			{
				Title:   "Cafe Dos",
				Reviews: []DigestReview{{ReviewerName: "Cyd", Rating: 4, Comment: "Nice patio"}},
			},
		},
		DashboardURL: "https://app.reviewhub.test/dashboard",
	}

	subject, body, err := Render(ReviewDigestTemplate, data)
	require.NoError(t, err)

	assert.Equal(t, "3 new reviews for your locations", subject)
	assert.Contains(t, body, "Hi Dana,")
	assert.Contains(t, body, "Cafe Uno")
	assert.Contains(t, body, "Cafe Dos")
	assert.Contains(t, body, "Loved the espresso")
	assert.Contains(t, body, "No comment")
	assert.Contains(t, body, "https://app.reviewhub.test/dashboard")
}

func TestRenderSingularSubject(t *testing.T) {
	subject, _, err := Render(ReviewDigestTemplate, DigestData{TotalNew: 1})
	require.NoError(t, err)
	assert.Equal(t, "1 new review for your locations", subject)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("missing.tmpl", nil)
	require.Error(t, err)
}
