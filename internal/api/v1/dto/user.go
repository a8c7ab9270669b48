package dto

import "time"

// UserResponse is the authenticated user's profile.
type UserResponse struct {
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	NotifyNewReviews bool      `json:"notify_new_reviews"`
	CreatedAt        time.Time `json:"created_at"`
}
