package dto

// CheckoutRequest starts a Stripe Checkout session for one location.
type CheckoutRequest struct {
	LocationID string `json:"location_id" validate:"required,uuid4"`
	Plan       string `json:"plan" validate:"required,oneof=monthly annual"`
}
