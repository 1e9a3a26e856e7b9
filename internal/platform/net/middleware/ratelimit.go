package middleware

import (
	stdjson "encoding/json"
	"net"
	stdhttp "net/http"
	"strconv"
	"time"

	pnet "greenhouse/internal/platform/net"
	"greenhouse/internal/platform/ratelimit"
)

type limitWire struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// RateLimit enforces limit requests per window per client IP, scoped by class
// so read and write routes count against separate budgets.
// A nil limiter or a failing store admits everything; the limiter is a guard,
// not a gate the service can die behind
func RateLimit(lim *ratelimit.Limiter, class string, limit int, window time.Duration) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			d := lim.Allow(r.Context(), class+":"+clientIP(r), limit, window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			retry := int(d.RetryAfter.Round(time.Second) / time.Second)
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))

			reqID := pnet.RequestID(r.Context())
			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}

			body := limitWire{
				StatusCode: stdhttp.StatusTooManyRequests,
				Status:     stdhttp.StatusText(stdhttp.StatusTooManyRequests),
				Error:      "rate limit exceeded",
				RequestID:  reqID,
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(stdhttp.StatusTooManyRequests)
			_ = stdjson.NewEncoder(w).Encode(body)
		})
	}
}

// clientIP trusts RemoteAddr, which RealIP has already rewritten when the
// service sits behind a proxy
func clientIP(r *stdhttp.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
