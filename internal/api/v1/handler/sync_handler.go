package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"reviewhub/internal/service"

	"github.com/rs/zerolog"
)

// SyncRunner runs one full review sync and reports what happened.
type SyncRunner interface {
	Run(ctx context.Context) (*service.Report, error)
}

// SyncHandler exposes the sync job to the scheduler.
type SyncHandler struct {
	runner SyncRunner
	secret string
	logger zerolog.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(runner SyncRunner, secret string, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		runner: runner,
		secret: secret,
		logger: logger,
	}
}

// RegisterRoutes registers the job endpoint. It authenticates with a shared
// secret instead of a user session, so it skips the auth middleware.
func (h *SyncHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /jobs/sync", http.HandlerFunc(h.sync))
}

func (h *SyncHandler) sync(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	report, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("sync run failed")
		http.Error(w, "sync failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
