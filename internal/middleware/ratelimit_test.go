package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newFormRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestRateLimitMiddleware_AllowsRequestsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{FormRate: 1, FormBurst: 5, CleanupInterval: time.Minute})
	defer rl.Stop()

	calls := 0
	handler := rl.FormMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newFormRequest("192.0.2.1:1234"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, w.Code)
		}
	}
	if calls != 5 {
		t.Errorf("handler call count = %d, want 5", calls)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	rl := NewRateLimiter(PerMinuteRateLimiterConfig(2))
	defer rl.Stop()

	handler := rl.FormMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, newFormRequest("192.0.2.1:1234"))
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	retryAfter, err := strconv.Atoi(last.Header().Get("Retry-After"))
	if err != nil || retryAfter != 30 {
		t.Errorf("Retry-After = %q, want 30", last.Header().Get("Retry-After"))
	}
}

func TestRateLimitMiddleware_XHRGetsJSON(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{FormRate: 1, FormBurst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	handler := rl.FormMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var w *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := newFormRequest("192.0.2.9:1")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Success || body.Message == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{FormRate: 1, FormBurst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	handler := rl.FormMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), newFormRequest("192.0.2.1:1000"))

	// 同じIPの別ポートは同一クライアント
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newFormRequest("192.0.2.1:2000"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("same IP: status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, newFormRequest("192.0.2.2:1000"))
	if w.Code != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", w.Code)
	}

	if rl.LimiterCount() != 2 {
		t.Errorf("LimiterCount = %d, want 2", rl.LimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{FormRate: 1, FormBurst: 1, CleanupInterval: 50 * time.Millisecond})
	defer rl.Stop()

	handler := rl.FormMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), newFormRequest("192.0.2.1:1"))

	if rl.LimiterCount() == 0 {
		t.Fatal("expected at least one limiter entry")
	}

	// TTLはCleanupIntervalの2倍（100ms）
	time.Sleep(250 * time.Millisecond)

	if count := rl.LimiterCount(); count != 0 {
		t.Errorf("expected 0 limiter entries after cleanup, got %d", count)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestPerMinuteRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	if cfg.FormBurst != 20 {
		t.Errorf("FormBurst = %d, want 20", cfg.FormBurst)
	}
	if float64(cfg.FormRate) != 20.0/60.0 {
		t.Errorf("FormRate = %v, want %v", cfg.FormRate, 20.0/60.0)
	}

	if got := PerMinuteRateLimiterConfig(0).FormBurst; got != 1 {
		t.Errorf("FormBurst for 0 = %d, want 1", got)
	}
}

func TestIsXHR(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/newsletter", nil)
	if IsXHR(req) {
		t.Error("request without header should not be XHR")
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if !IsXHR(req) {
		t.Error("request with header should be XHR")
	}
}
