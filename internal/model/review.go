package model

import "time"

// Review is one customer review scoped to a Location. The pair
// (location_id, google_review_id) is the upsert key for sync.
type Review struct {
	ReviewID         string     `db:"review_id" json:"review_id"`
	LocationID       string     `db:"location_id" json:"location_id"`
	GoogleReviewID   string     `db:"google_review_id" json:"google_review_id"`
	ReviewerName     string     `db:"reviewer_name" json:"reviewer_name"`
	ReviewerPhotoURL string     `db:"reviewer_photo_url" json:"reviewer_photo_url"`
	Rating           int        `db:"rating" json:"rating"`
	Comment          *string    `db:"comment" json:"comment,omitempty"`
	ReplyComment     *string    `db:"reply_comment" json:"reply_comment,omitempty"`
	ReplyUpdatedAt   *time.Time `db:"reply_updated_at" json:"reply_updated_at,omitempty"`
	GoogleCreatedAt  time.Time  `db:"google_created_at" json:"google_created_at"`
	GoogleUpdatedAt  time.Time  `db:"google_updated_at" json:"google_updated_at"`
	Published        bool       `db:"published" json:"published"`
	PublishedAt      *time.Time `db:"published_at" json:"published_at,omitempty"`
	Featured         bool       `db:"featured" json:"featured"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
