package model

import "time"

// WidgetSettings configures the public embeddable widget for a Location.
// Defaults are applied in memory when no row has been saved yet.
type WidgetSettings struct {
	LocationID        string    `db:"location_id" json:"location_id"`
	Layout            string    `db:"layout" json:"layout"`
	Theme             string    `db:"theme" json:"theme"`
	AccentColor       string    `db:"accent_color" json:"accent_color"`
	MinRating         int       `db:"min_rating" json:"min_rating"`
	ShowReviewerPhoto bool      `db:"show_reviewer_photo" json:"show_reviewer_photo"`
	ShowDates         bool      `db:"show_dates" json:"show_dates"`
	ShowReplies       bool      `db:"show_replies" json:"show_replies"`
	// AutoPublishMinRating auto-publishes synced reviews at or above this
	// rating. Zero disables auto-publish.
	AutoPublishMinRating int       `db:"auto_publish_min_rating" json:"auto_publish_min_rating"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultWidgetSettings returns the in-memory defaults for a location that
// has never saved settings.
func DefaultWidgetSettings(locationID string) *WidgetSettings {
	return &WidgetSettings{
		LocationID:           locationID,
		Layout:               "carousel",
		Theme:                "light",
		AccentColor:          "#2563eb",
		MinRating:            4,
		ShowReviewerPhoto:    true,
		ShowDates:            true,
		ShowReplies:          false,
		AutoPublishMinRating: 4,
	}
}
