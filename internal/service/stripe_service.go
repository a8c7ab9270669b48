package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/model"
	"reviewhub/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	billingsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
	subscriptionpkg "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeService manages the Stripe integration: per-location checkout, the
// customer portal, and webhook-driven subscription state.
type StripeService struct {
	cfg       *config.Config
	userRepo  repository.UserRepository
	locations repository.LocationRepository
	subSvc    SubscriptionService
	logger    zerolog.Logger
}

// NewStripeService initializes the Stripe key and returns the service with
// a scoped logger.
func NewStripeService(cfg *config.Config, userRepo repository.UserRepository, locations repository.LocationRepository, subSvc SubscriptionService, logger zerolog.Logger) *StripeService {
	stripe.Key = cfg.StripeSecretKey
	return &StripeService{
		cfg:       cfg,
		userRepo:  userRepo,
		locations: locations,
		subSvc:    subSvc,
		logger:    logger.With().Str("service", "StripeService").Logger(),
	}
}

// GetOrCreateCustomer ensures a Stripe Customer exists for a user.
func (s *StripeService) GetOrCreateCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email:    stripe.String(user.Email),
		Name:     stripe.String(user.Name),
		Metadata: map[string]string{"user_id": user.UserID},
	}
	cust, err := customerpkg.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to create Stripe customer")
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	if err := s.userRepo.UpdateStripeCustomerID(ctx, user.UserID, cust.ID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to store stripe customer id")
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession creates a Stripe Checkout session subscribing one
// location. The location id travels in the session and subscription
// metadata so webhook events can be attributed without guessing.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, locationID, plan string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("user not found: %s", userID)
	}
	loc, err := s.locations.GetByIDForUser(ctx, locationID, userID)
	if err != nil {
		return "", fmt.Errorf("fetch location: %w", err)
	}
	if loc == nil {
		return "", ErrNotFound
	}

	customerID, err := s.GetOrCreateCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	var priceID string
	switch plan {
	case "monthly":
		priceID = s.cfg.StripePriceMonthly
	case "annual":
		priceID = s.cfg.StripePriceAnnual
	default:
		return "", fmt.Errorf("invalid plan: %s", plan)
	}

	metadata := map[string]string{"user_id": userID, "location_id": locationID}
	sessParams := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		Mode:               stripe.String(stripe.CheckoutSessionModeSubscription),
		SuccessURL:         stripe.String(s.cfg.BillingReturnURL + "?status=success"),
		CancelURL:          stripe.String(s.cfg.BillingReturnURL + "?status=cancel"),
		Metadata:           metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata:        metadata,
			TrialPeriodDays: stripe.Int64(int64(s.cfg.StripeTrialDays)),
		},
	}
	sess, err := checkoutsession.New(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("plan", plan).Str("location_id", locationID).Msg("Failed to create Stripe checkout session")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession creates a Stripe Customer Portal session.
func (s *StripeService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil || user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return "", fmt.Errorf("no stripe customer for user %s: %w", userID, ErrNotFound)
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*user.StripeCustomerID),
		ReturnURL: stripe.String(s.cfg.BillingReturnURL),
	}
	sess, err := billingsession.New(params)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create Stripe billing portal session")
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

// HandleWebhook processes Stripe webhook events.
func (s *StripeService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	s.logger.Info().Str("event_type", string(event.Type)).Msg("Stripe webhook received")

	ctx := r.Context()
	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			s.logger.Error().Err(err).Msg("Invalid checkout.session data")
			http.Error(w, "invalid checkout.session data", http.StatusBadRequest)
			return
		}
		locationID := cs.Metadata["location_id"]
		if locationID == "" {
			s.logger.Error().Msg("Missing location_id in checkout session metadata")
			http.Error(w, "missing location_id in metadata", http.StatusBadRequest)
			return
		}
		if cs.Subscription == nil || cs.Subscription.ID == "" {
			s.logger.Error().Str("location_id", locationID).Msg("Checkout session has no subscription")
			http.Error(w, "checkout session has no subscription", http.StatusBadRequest)
			return
		}
		// Fetch the full subscription for status, period, and trial data.
		subObj, err := subscriptionpkg.Get(cs.Subscription.ID, nil)
		if err != nil {
			s.logger.Error().Err(err).Str("subscription_id", cs.Subscription.ID).Msg("Failed to fetch subscription details")
			http.Error(w, "failed to fetch subscription details", http.StatusInternalServerError)
			return
		}
		if err := s.subSvc.Apply(ctx, subscriptionFromStripe(locationID, subObj)); err != nil {
			http.Error(w, "failed to save subscription", http.StatusInternalServerError)
			return
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			s.logger.Error().Err(err).Msg("Invalid subscription payload")
			http.Error(w, "invalid subscription data", http.StatusBadRequest)
			return
		}
		locationID, err := s.locationIDForSubscription(ctx, &sub)
		if err != nil {
			s.logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("Failed to attribute subscription event")
			http.Error(w, "failed to attribute subscription", http.StatusInternalServerError)
			return
		}
		if err := s.subSvc.Apply(ctx, subscriptionFromStripe(locationID, &sub)); err != nil {
			http.Error(w, "failed to save subscription", http.StatusInternalServerError)
			return
		}

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			s.logger.Error().Err(err).Msg("Invalid invoice.payment_failed payload")
			http.Error(w, "invalid invoice data", http.StatusBadRequest)
			return
		}
		subID := subscriptionIDFromInvoice(&invoice)
		if subID == "" {
			// One-time invoice, nothing to do.
			break
		}
		existing, err := s.subSvc.GetByStripeID(ctx, subID)
		if err != nil {
			http.Error(w, "failed to look up subscription", http.StatusInternalServerError)
			return
		}
		if existing == nil {
			s.logger.Warn().Str("subscription_id", subID).Msg("Payment failed for unknown subscription")
			break
		}
		existing.Status = model.SubscriptionStatusPastDue
		if err := s.subSvc.Apply(ctx, existing); err != nil {
			http.Error(w, "failed to save subscription", http.StatusInternalServerError)
			return
		}

	default:
		s.logger.Debug().Str("event_type", string(event.Type)).Msg("Ignoring unhandled Stripe event")
	}

	w.WriteHeader(http.StatusOK)
}

// locationIDForSubscription reads the location id from subscription
// metadata, falling back to the stored mapping by Stripe subscription id.
func (s *StripeService) locationIDForSubscription(ctx context.Context, sub *stripe.Subscription) (string, error) {
	if id := sub.Metadata["location_id"]; id != "" {
		return id, nil
	}
	existing, err := s.subSvc.GetByStripeID(ctx, sub.ID)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", fmt.Errorf("no location mapped to subscription %s", sub.ID)
	}
	return existing.LocationID, nil
}

func subscriptionFromStripe(locationID string, sub *stripe.Subscription) *model.Subscription {
	out := &model.Subscription{
		LocationID:           locationID,
		StripeSubscriptionID: sub.ID,
		Status:               string(sub.Status),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.CurrentPeriodStart = time.Unix(item.CurrentPeriodStart, 0)
		out.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0)
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0)
		out.TrialEnd = &t
	}
	return out
}

func subscriptionIDFromInvoice(invoice *stripe.Invoice) string {
	if invoice.Lines == nil {
		return ""
	}
	for _, line := range invoice.Lines.Data {
		if line.Subscription != nil && line.Subscription.ID != "" {
			return line.Subscription.ID
		}
	}
	return ""
}
