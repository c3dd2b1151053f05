package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request in the window should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients are independent")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("a new window should reset the counter")
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 5, CleanupInterval: time.Hour})
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.Allow("a")
	now = now.Add(11 * time.Minute)
	rl.Allow("b")
	rl.cleanupStaleEntries()

	if rl.ActiveClients() != 1 {
		t.Fatalf("ActiveClients() = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_MiddlewareOnlyLimitsListedMethods(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil, http.MethodPost)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chart_data", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %d limited with %d", i, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/add_record", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("first POST = %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/add_record", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Fatal("missing Retry-After")
	}
	if rl.GetMetrics().TotalHits != 1 {
		t.Fatalf("TotalHits = %d", rl.GetMetrics().TotalHits)
	}
}
