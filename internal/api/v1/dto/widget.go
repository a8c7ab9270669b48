package dto

// WidgetSettingsRequest saves the widget configuration for a location.
type WidgetSettingsRequest struct {
	Layout               string `json:"layout" validate:"required,oneof=carousel grid list"`
	Theme                string `json:"theme" validate:"required,oneof=light dark"`
	AccentColor          string `json:"accent_color" validate:"required,hexcolor"`
	MinRating            int    `json:"min_rating" validate:"min=1,max=5"`
	ShowReviewerPhoto    bool   `json:"show_reviewer_photo"`
	ShowDates            bool   `json:"show_dates"`
	ShowReplies          bool   `json:"show_replies"`
	AutoPublishMinRating int    `json:"auto_publish_min_rating" validate:"min=0,max=5"`
}
