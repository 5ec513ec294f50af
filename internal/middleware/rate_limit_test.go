package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newLimitedHandler(t *testing.T, rps float64, burst int) (*RateLimiter, http.Handler) {
	t.Helper()
	rl := NewRateLimiter(context.Background(), rps, burst)
	t.Cleanup(rl.Stop)
	return rl, rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func postLogin(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BurstThenLimited(t *testing.T) {
	_, handler := newLimitedHandler(t, 0.001, 2)

	assert.Equal(t, http.StatusOK, postLogin(handler, "192.168.1.1:1234").Code)
	assert.Equal(t, http.StatusOK, postLogin(handler, "192.168.1.1:1234").Code)

	w := postLogin(handler, "192.168.1.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimiter_PerIP(t *testing.T) {
	_, handler := newLimitedHandler(t, 0.001, 1)

	assert.Equal(t, http.StatusOK, postLogin(handler, "192.168.1.1:1234").Code)
	assert.Equal(t, http.StatusOK, postLogin(handler, "192.168.1.2:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, postLogin(handler, "192.168.1.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, postLogin(handler, "192.168.1.2:1234").Code)
}

func TestRateLimiter_PortsShareBudget(t *testing.T) {
	_, handler := newLimitedHandler(t, 0.001, 1)

	assert.Equal(t, http.StatusOK, postLogin(handler, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, postLogin(handler, "10.0.0.1:2000").Code)
}

func TestRateLimiter_CleanupIdle(t *testing.T) {
	rl, _ := newLimitedHandler(t, 10, 1)

	for i := 0; i < 100; i++ {
		rl.getLimiter(fmt.Sprintf("192.168.1.%d", i))
	}
	assert.Len(t, rl.limiters, 100)

	rl.cleanup(time.Now().Add(limiterTTL + time.Minute))

	assert.Empty(t, rl.limiters)
}

func TestRateLimiter_LRUEviction(t *testing.T) {
	rl, _ := newLimitedHandler(t, 10, 1)

	for i := 0; i < maxLimiters+500; i++ {
		rl.getLimiter(fmt.Sprintf("ip-%d", i))
	}

	rl.cleanup(time.Now())

	assert.LessOrEqual(t, len(rl.limiters), maxLimiters)
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl, handler := newLimitedHandler(t, 100, 10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				postLogin(handler, fmt.Sprintf("192.168.2.%d:1234", id))
			}
		}(i)
	}
	wg.Wait()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.limiters, 50)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 1, 1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestRateLimiter_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rl := NewRateLimiter(ctx, 10, 1)
	cancel()
	time.Sleep(10 * time.Millisecond)
	rl.Stop()
}
