package dto

import "time"

// LocationUpdateRequest renames a location on the dashboard.
type LocationUpdateRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// LocationResponse is returned in API responses.
type LocationResponse struct {
	LocationID    string     `json:"location_id"`
	Title         string     `json:"title"`
	AverageRating *float64   `json:"average_rating,omitempty"`
	ReviewCount   int        `json:"review_count"`
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
	Active        bool       `json:"active"`
	WidgetKey     string     `json:"widget_key"`
	// SubscriptionStatus is empty when the location has never checked out.
	SubscriptionStatus string `json:"subscription_status,omitempty"`
}
