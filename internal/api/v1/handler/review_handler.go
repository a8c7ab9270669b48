package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"reviewhub/internal/api/v1/dto"
	"reviewhub/internal/gbp"
	"reviewhub/internal/model"
	"reviewhub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ReviewHandler serves the dashboard's review actions.
type ReviewHandler struct {
	reviewSvc *service.ReviewService
	drafter   service.ReplyDrafter
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewSvc *service.ReviewService, drafter service.ReplyDrafter, validate *validator.Validate, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewSvc: reviewSvc,
		drafter:   drafter,
		validate:  validate,
		logger:    logger,
	}
}

// RegisterRoutes registers the review endpoints.
func (h *ReviewHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.Handle("POST /reviews/{id}/reply", authMiddleware(http.HandlerFunc(h.reply)))
	mux.Handle("DELETE /reviews/{id}/reply", authMiddleware(http.HandlerFunc(h.deleteReply)))
	mux.Handle("POST /reviews/{id}/draft", authMiddleware(http.HandlerFunc(h.draft)))
	mux.Handle("POST /reviews/{id}/publish", authMiddleware(http.HandlerFunc(h.publish)))
	mux.Handle("POST /reviews/{id}/unpublish", authMiddleware(http.HandlerFunc(h.unpublish)))
	mux.Handle("POST /reviews/{id}/feature", authMiddleware(http.HandlerFunc(h.feature)))
	mux.Handle("DELETE /reviews/{id}/feature", authMiddleware(http.HandlerFunc(h.unfeature)))
}

func (h *ReviewHandler) reply(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req dto.ReviewReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	rev, err := h.reviewSvc.Reply(r.Context(), uid, r.PathValue("id"), req.Comment)
	if err != nil {
		h.writeReviewError(w, err, "failed to post reply")
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse(rev))
}

func (h *ReviewHandler) deleteReply(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	rev, err := h.reviewSvc.DeleteReply(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		h.writeReviewError(w, err, "failed to delete reply")
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse(rev))
}

func (h *ReviewHandler) draft(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	rev, loc, err := h.reviewSvc.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		h.writeReviewError(w, err, "failed to load review")
		return
	}
	draft, err := h.drafter.DraftReply(r.Context(), loc.Title, rev)
	if err != nil {
		h.logger.Error().Err(err).Str("review_id", rev.ReviewID).Msg("AI draft failed")
		http.Error(w, "failed to draft reply", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, dto.ReviewDraftResponse{Draft: draft})
}

func (h *ReviewHandler) publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

func (h *ReviewHandler) unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *ReviewHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	rev, err := h.reviewSvc.SetPublished(r.Context(), uid, r.PathValue("id"), published)
	if err != nil {
		h.writeReviewError(w, err, "failed to update review")
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse(rev))
}

func (h *ReviewHandler) feature(w http.ResponseWriter, r *http.Request) {
	h.setFeatured(w, r, true)
}

func (h *ReviewHandler) unfeature(w http.ResponseWriter, r *http.Request) {
	h.setFeatured(w, r, false)
}

func (h *ReviewHandler) setFeatured(w http.ResponseWriter, r *http.Request, featured bool) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	rev, err := h.reviewSvc.SetFeatured(r.Context(), uid, r.PathValue("id"), featured)
	if err != nil {
		h.writeReviewError(w, err, "failed to update review")
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse(rev))
}

func (h *ReviewHandler) writeReviewError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "review not found", http.StatusNotFound)
	case errors.Is(err, gbp.ErrAuthExpired):
		http.Error(w, "google authorization expired, sign in again", http.StatusUnauthorized)
	default:
		h.logger.Error().Err(err).Msg(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func reviewResponse(r *model.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ReviewID:         r.ReviewID,
		LocationID:       r.LocationID,
		ReviewerName:     r.ReviewerName,
		ReviewerPhotoURL: r.ReviewerPhotoURL,
		Rating:           r.Rating,
		Comment:          r.Comment,
		ReplyComment:     r.ReplyComment,
		ReplyUpdatedAt:   r.ReplyUpdatedAt,
		Published:        r.Published,
		Featured:         r.Featured,
		CreatedAt:        r.GoogleCreatedAt,
	}
}
