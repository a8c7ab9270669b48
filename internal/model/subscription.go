package model

import "time"

// Subscription statuses mirrored from Stripe.
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusUnpaid     = "unpaid"
	SubscriptionStatusIncomplete = "incomplete"
)

// Subscription is the billing state for a Location, one-to-one.
type Subscription struct {
	LocationID           string     `db:"location_id" json:"location_id"`
	StripeSubscriptionID string     `db:"stripe_subscription_id" json:"stripe_subscription_id"`
	Status               string     `db:"status" json:"status"`
	CurrentPeriodStart   time.Time  `db:"current_period_start" json:"current_period_start"`
	CurrentPeriodEnd     time.Time  `db:"current_period_end" json:"current_period_end"`
	TrialEnd             *time.Time `db:"trial_end" json:"trial_end,omitempty"`
	CancelAtPeriodEnd    bool       `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// Billable reports whether the subscription entitles the location to sync
// and to serve its public widget.
func (s *Subscription) Billable() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}
