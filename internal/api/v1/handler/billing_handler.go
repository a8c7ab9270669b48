package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"reviewhub/internal/api/v1/dto"
	"reviewhub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// BillingHandler serves checkout, billing portal and Stripe webhooks.
type BillingHandler struct {
	stripeSvc *service.StripeService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(stripeSvc *service.StripeService, validate *validator.Validate, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{
		stripeSvc: stripeSvc,
		validate:  validate,
		logger:    logger,
	}
}

// RegisterRoutes registers the billing endpoints. The webhook endpoint is
// public; Stripe signs its payloads instead.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /billing/checkout", authMiddleware(http.HandlerFunc(h.checkout)))
	mux.Handle("POST /billing/portal", authMiddleware(http.HandlerFunc(h.portal)))
	mux.Handle("POST /billing/webhook", http.HandlerFunc(h.stripeSvc.HandleWebhook))
}

func (h *BillingHandler) checkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req dto.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	url, err := h.stripeSvc.CreateCheckoutSession(r.Context(), uid, req.LocationID, req.Plan)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "location not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("location_id", req.LocationID).Msg("checkout session failed")
		http.Error(w, "failed to create checkout session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *BillingHandler) portal(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	url, err := h.stripeSvc.CreatePortalSession(r.Context(), uid)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "no billing account", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("portal session failed")
		http.Error(w, "failed to create portal session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
