package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewhub/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	runs   int
	report *service.Report
	err    error
}

func (f *fakeRunner) Run(ctx context.Context) (*service.Report, error) {
	f.runs++
	return f.report, f.err
}

func newSyncTestServer(runner *fakeRunner) *http.ServeMux {
	mux := http.NewServeMux()
	NewSyncHandler(runner, "cron-secret", zerolog.Nop()).RegisterRoutes(mux)
	return mux
}

func TestSyncRejectsBadSecretWithoutRunning(t *testing.T) {
	runner := &fakeRunner{}
	mux := newSyncTestServer(runner)

	for _, auth := range []string{"", "Bearer wrong", "cron-secret", "Basic cron-secret"} {
		req := httptest.NewRequest(http.MethodGet, "/jobs/sync", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, auth)
	}
	assert.Zero(t, runner.runs)
}

func TestSyncRunsAndReturnsReport(t *testing.T) {
	runner := &fakeRunner{report: &service.Report{
		TotalSynced:        6,
		TotalNew:           3,
		LocationsProcessed: 2,
		Results: []service.LocationResult{
			{Location: "Cafe Uno", NewReviews: 1, TotalSynced: 4},
			{Location: "Cafe Dos", NewReviews: 2, TotalSynced: 2},
		},
	}}
	mux := newSyncTestServer(runner)

	req := httptest.NewRequest(http.MethodGet, "/jobs/sync", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.runs)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 6, got["totalSynced"])
	assert.EqualValues(t, 3, got["totalNew"])
	assert.EqualValues(t, 2, got["locationsProcessed"])
	results := got["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "Cafe Uno", first["location"])
}
