package dto

import "time"

// ReviewReplyRequest posts or updates a reply to a review.
type ReviewReplyRequest struct {
	Comment string `json:"comment" validate:"required,max=4000"`
}

// ReviewDraftResponse carries an AI-drafted reply. Nothing is persisted.
type ReviewDraftResponse struct {
	Draft string `json:"draft"`
}

// ReviewResponse is returned in API responses.
type ReviewResponse struct {
	ReviewID         string     `json:"review_id"`
	LocationID       string     `json:"location_id"`
	ReviewerName     string     `json:"reviewer_name"`
	ReviewerPhotoURL string     `json:"reviewer_photo_url,omitempty"`
	Rating           int        `json:"rating"`
	Comment          *string    `json:"comment,omitempty"`
	ReplyComment     *string    `json:"reply_comment,omitempty"`
	ReplyUpdatedAt   *time.Time `json:"reply_updated_at,omitempty"`
	Published        bool       `json:"published"`
	Featured         bool       `json:"featured"`
	CreatedAt        time.Time  `json:"created_at"`
}
