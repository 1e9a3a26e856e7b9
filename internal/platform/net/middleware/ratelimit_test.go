package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"greenhouse/internal/platform/cache"
	"greenhouse/internal/platform/ratelimit"

	"github.com/rs/zerolog"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(t *testing.T, h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_AllowsWithinBudget(t *testing.T) {
	ctx := context.Background()
	lim := ratelimit.New(cache.NewMemory(ctx), ratelimit.Config{}, zerolog.New(io.Discard))

	h := RateLimit(lim, "read", 3, time.Minute)(okHandler())

	rec := hit(t, h, "9.9.9.9:1234")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Fatalf("X-RateLimit-Limit = %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("X-RateLimit-Remaining = %q", got)
	}
}

func TestRateLimit_DeniesPastBudget(t *testing.T) {
	ctx := context.Background()
	lim := ratelimit.New(cache.NewMemory(ctx), ratelimit.Config{}, zerolog.New(io.Discard))

	h := RateLimit(lim, "write", 2, time.Minute)(okHandler())

	for i := 0; i < 2; i++ {
		if rec := hit(t, h, "9.9.9.9:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}

	rec := hit(t, h, "9.9.9.9:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("X-RateLimit-Remaining = %q", got)
	}
	if got := rec.Header().Get("Retry-After"); got == "" || got == "0" {
		t.Fatalf("Retry-After = %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("Content-Type = %q", ct)
	}

	var body limitWire
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body decode: %v", err)
	}
	if body.StatusCode != http.StatusTooManyRequests || body.Error != "rate limit exceeded" {
		t.Fatalf("body = %+v", body)
	}
}

func TestRateLimit_ClassesAreIsolated(t *testing.T) {
	ctx := context.Background()
	lim := ratelimit.New(cache.NewMemory(ctx), ratelimit.Config{}, zerolog.New(io.Discard))

	read := RateLimit(lim, "read", 1, time.Minute)(okHandler())
	write := RateLimit(lim, "write", 1, time.Minute)(okHandler())

	if rec := hit(t, read, "9.9.9.9:1234"); rec.Code != http.StatusOK {
		t.Fatalf("read status = %d", rec.Code)
	}
	if rec := hit(t, read, "9.9.9.9:1234"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second read status = %d", rec.Code)
	}
	// write budget is separate from the exhausted read budget
	if rec := hit(t, write, "9.9.9.9:1234"); rec.Code != http.StatusOK {
		t.Fatalf("write status = %d", rec.Code)
	}
}

func TestRateLimit_ClientsAreIsolated(t *testing.T) {
	ctx := context.Background()
	lim := ratelimit.New(cache.NewMemory(ctx), ratelimit.Config{}, zerolog.New(io.Discard))

	h := RateLimit(lim, "read", 1, time.Minute)(okHandler())

	if rec := hit(t, h, "1.1.1.1:1000"); rec.Code != http.StatusOK {
		t.Fatalf("first client status = %d", rec.Code)
	}
	if rec := hit(t, h, "1.1.1.1:2000"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same IP new port status = %d", rec.Code)
	}
	if rec := hit(t, h, "2.2.2.2:1000"); rec.Code != http.StatusOK {
		t.Fatalf("other client status = %d", rec.Code)
	}
}

func TestRateLimit_NilLimiterAdmitsEverything(t *testing.T) {
	h := RateLimit(nil, "read", 1, time.Minute)(okHandler())
	for i := 0; i < 10; i++ {
		if rec := hit(t, h, "9.9.9.9:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
}
