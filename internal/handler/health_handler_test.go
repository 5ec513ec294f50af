package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"course-portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_ReturnsOK(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead} {
		t.Run(method, func(t *testing.T) {
			w := httptest.NewRecorder()
			Health(w, httptest.NewRequest(method, "/health", nil))

			testutil.AssertStatusCode(t, w, http.StatusOK)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestHealthCheckResult_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(HealthCheckResult{Status: "up"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"status":"up"}`, string(data))
}

func TestReady(t *testing.T) {
	up := Check{Name: "storage", Ping: func(context.Context) error { return nil }}
	withMeta := Check{
		Name:     "backend",
		Ping:     func(context.Context) error { return nil },
		Metadata: func() map[string]any { return map[string]any{"base_url": "http://api"} },
	}
	down := Check{Name: "backend", Ping: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name       string
		checks     []Check
		wantStatus int
		wantState  string
	}{
		{"all_up", []Check{up, withMeta}, http.StatusOK, "ready"},
		{"one_down", []Check{up, down}, http.StatusServiceUnavailable, "not_ready"},
		{"no_checks", nil, http.StatusOK, "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Ready(tt.checks...)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			testutil.AssertStatusCode(t, w, tt.wantStatus)

			var body struct {
				Status string                       `json:"status"`
				Checks map[string]HealthCheckResult `json:"checks"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantState, body.Status)
			assert.Len(t, body.Checks, len(tt.checks))
		})
	}
}

func TestReady_ReportsErrorAndMetadata(t *testing.T) {
	w := httptest.NewRecorder()
	Ready(
		Check{Name: "storage", Ping: func(context.Context) error { return errors.New("disk full") }},
		Check{
			Name:     "backend",
			Ping:     func(context.Context) error { return nil },
			Metadata: func() map[string]any { return map[string]any{"base_url": "http://api"} },
		},
	)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body struct {
		Checks map[string]HealthCheckResult `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "down", body.Checks["storage"].Status)
	assert.Equal(t, "disk full", body.Checks["storage"].Error)
	assert.Equal(t, "http://api", body.Checks["backend"].Metadata["base_url"])
}
