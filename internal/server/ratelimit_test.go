package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(10, 5, slog.Default())
	defer stop()

	h := rl.middleware(okHandler)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimiter_RejectsBeyondBurst(t *testing.T) {
	t.Parallel()

	// rps of 0.001 means the bucket effectively never refills during the test.
	rl, stop := newRateLimiter(0.001, 2, slog.Default())
	defer stop()

	h := rl.middleware(okHandler)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request should be limited, got %d", codes[2])
	}
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(0.001, 1, slog.Default())
	defer stop()

	h := rl.middleware(okHandler)

	// Exhaust the first IP's bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	req2 := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	req2.RemoteAddr = "10.0.0.3:1234"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, req2)
	if w2.Code != http.StatusTooManyRequests {
		t.Errorf("exhausted IP: expected 429, got %d", w2.Code)
	}

	// A different IP is unaffected.
	req3 := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	req3.RemoteAddr = "10.0.0.4:1234"
	w3 := httptest.NewRecorder()
	h.ServeHTTP(w3, req3)
	if w3.Code != http.StatusOK {
		t.Errorf("fresh IP: expected 200, got %d", w3.Code)
	}
}

func TestRateLimiter_RetryAfterHeader(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(0.001, 1, slog.Default())
	defer stop()

	h := rl.middleware(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)

	req2 := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	req2.RemoteAddr = "10.0.0.5:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req2)

	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After header, got %q", w.Header().Get("Retry-After"))
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{"10.0.0.1:1234", "10.0.0.1"},
		{"[::1]:8080", "[::1]"},
		{"no-port", "no-port"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.addr
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
