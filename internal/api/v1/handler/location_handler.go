package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"reviewhub/internal/api/v1/dto"
	"reviewhub/internal/gbp"
	"reviewhub/internal/model"
	"reviewhub/internal/repository"
	"reviewhub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// LocationHandler serves the dashboard's location endpoints.
type LocationHandler struct {
	locationSvc *service.LocationService
	reviewSvc   *service.ReviewService
	widgetSvc   *service.WidgetService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locationSvc *service.LocationService, reviewSvc *service.ReviewService, widgetSvc *service.WidgetService, validate *validator.Validate, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		locationSvc: locationSvc,
		reviewSvc:   reviewSvc,
		widgetSvc:   widgetSvc,
		validate:    validate,
		logger:      logger,
	}
}

// RegisterRoutes registers the location endpoints.
func (h *LocationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /locations/import", authMiddleware(http.HandlerFunc(h.importLocations)))
	mux.Handle("GET /locations", authMiddleware(http.HandlerFunc(h.list)))
	mux.Handle("GET /locations/{id}", authMiddleware(http.HandlerFunc(h.get)))
	mux.Handle("PATCH /locations/{id}", authMiddleware(http.HandlerFunc(h.update)))
	mux.Handle("GET /locations/{id}/reviews", authMiddleware(http.HandlerFunc(h.reviews)))
	mux.Handle("GET /locations/{id}/widget", authMiddleware(http.HandlerFunc(h.widgetSettings)))
	mux.Handle("PUT /locations/{id}/widget", authMiddleware(http.HandlerFunc(h.saveWidgetSettings)))
}

func (h *LocationHandler) importLocations(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	result, err := h.locationSvc.Import(r.Context(), uid)
	if err != nil {
		if errors.Is(err, gbp.ErrAuthExpired) {
			http.Error(w, "google authorization expired, sign in again", http.StatusUnauthorized)
			return
		}
		h.logger.Error().Err(err).Str("user_id", uid).Msg("Location import failed")
		http.Error(w, "import failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *LocationHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	locs, err := h.locationSvc.List(r.Context(), uid)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", uid).Msg("Location list failed")
		http.Error(w, "failed to list locations", http.StatusInternalServerError)
		return
	}
	out := make([]dto.LocationResponse, 0, len(locs))
	for _, l := range locs {
		out = append(out, locationResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LocationHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	loc, err := h.locationSvc.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "location not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load location", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, locationResponse(service.LocationWithBilling{Location: *loc}))
}

func (h *LocationHandler) update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req dto.LocationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	loc, err := h.locationSvc.UpdateTitle(r.Context(), uid, r.PathValue("id"), req.Title)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "location not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update location", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, locationResponse(service.LocationWithBilling{Location: *loc}))
}

func (h *LocationHandler) reviews(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	f := repository.ReviewFilter{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("published"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid published filter", http.StatusBadRequest)
			return
		}
		f.Published = &b
	}
	if v := q.Get("min_rating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 5 {
			http.Error(w, "invalid min_rating filter", http.StatusBadRequest)
			return
		}
		f.MinRating = n
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}

	reviews, err := h.reviewSvc.ListByLocation(r.Context(), uid, r.PathValue("id"), f)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "location not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to list reviews", http.StatusInternalServerError)
		return
	}
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, reviewResponse(&reviews[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LocationHandler) widgetSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	ws, err := h.widgetSvc.Settings(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "location not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load widget settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *LocationHandler) saveWidgetSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req dto.WidgetSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	ws := &model.WidgetSettings{
		LocationID:           r.PathValue("id"),
		Layout:               req.Layout,
		Theme:                req.Theme,
		AccentColor:          req.AccentColor,
		MinRating:            req.MinRating,
		ShowReviewerPhoto:    req.ShowReviewerPhoto,
		ShowDates:            req.ShowDates,
		ShowReplies:          req.ShowReplies,
		AutoPublishMinRating: req.AutoPublishMinRating,
	}
	saved, err := h.widgetSvc.SaveSettings(r.Context(), uid, ws)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "location not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to save widget settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func locationResponse(l service.LocationWithBilling) dto.LocationResponse {
	resp := dto.LocationResponse{
		LocationID:    l.LocationID,
		Title:         l.Title,
		AverageRating: l.AverageRating,
		ReviewCount:   l.ReviewCount,
		LastSyncedAt:  l.LastSyncedAt,
		Active:        l.Active,
		WidgetKey:     l.WidgetKey,
	}
	if l.Subscription != nil {
		resp.SubscriptionStatus = l.Subscription.Status
	}
	return resp
}
