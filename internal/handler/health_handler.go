package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    string         `json:"status"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Check is one dependency probed by Ready
type Check struct {
	Name     string
	Ping     func(ctx context.Context) error
	Metadata func() map[string]any
}

// Ready probes every dependency in parallel. The portal is ready only when
// all of them answer.
func Ready(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := make(map[string]HealthCheckResult, len(checks))
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, c := range checks {
			wg.Add(1)
			go func(c Check) {
				defer wg.Done()
				res := runCheck(ctx, c)
				mu.Lock()
				results[c.Name] = res
				mu.Unlock()
			}(c)
		}
		wg.Wait()

		allHealthy := true
		for _, res := range results {
			if res.Status != "up" {
				allHealthy = false
			}
		}

		response := map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    results,
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			response["status"] = "ready"
			w.WriteHeader(http.StatusOK)
		} else {
			response["status"] = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(response)
	}
}

func runCheck(ctx context.Context, c Check) HealthCheckResult {
	start := time.Now()
	err := c.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return HealthCheckResult{
			Status:    "down",
			LatencyMs: latency.Milliseconds(),
			Error:     err.Error(),
		}
	}

	res := HealthCheckResult{Status: "up", LatencyMs: latency.Milliseconds()}
	if c.Metadata != nil {
		res.Metadata = c.Metadata()
	}
	return res
}
