package model

import "time"

// Location is one subscribed business location. The triple
// (user_id, google_account_id, google_location_id) is unique.
type Location struct {
	LocationID       string     `db:"location_id" json:"location_id"`
	UserID           string     `db:"user_id" json:"user_id"`
	GoogleAccountID  string     `db:"google_account_id" json:"google_account_id"`
	GoogleLocationID string     `db:"google_location_id" json:"google_location_id"`
	Title            string     `db:"title" json:"title"`
	AverageRating    *float64   `db:"average_rating" json:"average_rating,omitempty"`
	ReviewCount      int        `db:"review_count" json:"review_count"`
	LastSyncedAt     *time.Time `db:"last_synced_at" json:"last_synced_at,omitempty"`
	Active           bool       `db:"active" json:"active"`
	WidgetKey        string     `db:"widget_key" json:"widget_key"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
