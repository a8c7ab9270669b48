package handler

import (
	"net/http"
	"time"

	"reviewhub/internal/api/v1/dto"
	"reviewhub/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const stateCookieName = "rh_oauth_state"

// AuthHandler runs the Google sign-in flow and serves the current profile.
type AuthHandler struct {
	authSvc     *service.AuthService
	userSvc     service.UserService
	frontendURL string
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc *service.AuthService, userSvc service.UserService, frontendURL string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userSvc: userSvc, frontendURL: frontendURL, logger: logger}
}

// RegisterRoutes registers the auth endpoints. The Google endpoints are
// public; /me requires a session.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /auth/google", h.login)
	mux.HandleFunc("GET /auth/google/callback", h.callback)
	mux.Handle("GET /me", authMiddleware(http.HandlerFunc(h.me)))
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.authSvc.LoginURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	_, session, err := h.authSvc.HandleCallback(r.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Msg("Google sign-in failed")
		http.Error(w, "sign-in failed", http.StatusInternalServerError)
		return
	}

	// Hand the session token to the dashboard in the URL fragment so it
	// never reaches the frontend's server logs.
	http.Redirect(w, r, h.frontendURL+"/auth#token="+session, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.userSvc.Get(r.Context(), uid)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponse{
		UserID:           user.UserID,
		Name:             user.Name,
		Email:            user.Email,
		AvatarURL:        user.AvatarURL,
		NotifyNewReviews: user.NotifyNewReviews,
		CreatedAt:        user.CreatedAt,
	})
}
