package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"greenhouse/internal/platform/net/middleware"
	"greenhouse/internal/platform/ratelimit"
)

// CommonStack returns the baseline per module middleware slice
// compose with your rate limit guards as needed in main
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.Logger(),

		// cross-origin (tweak config in main if needed)
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}

// Throttle builds a rate limit guard for a route class
func Throttle(lim *ratelimit.Limiter, class string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return middleware.RateLimit(lim, class, limit, window)
}

// Guards holds the per route class rate limit middlewares.
// Zero value means unguarded; modules apply whichever entries are non nil
type Guards struct {
	Read  func(http.Handler) http.Handler
	Write func(http.Handler) http.Handler
}

// ReadGroup mounts fn under the read guard when one is set
func (g Guards) ReadGroup(r Router, fn func(Router)) { g.group(r, g.Read, fn) }

// WriteGroup mounts fn under the write guard when one is set
func (g Guards) WriteGroup(r Router, fn func(Router)) { g.group(r, g.Write, fn) }

func (Guards) group(r Router, mw func(http.Handler) http.Handler, fn func(Router)) {
	r.Group(func(sub Router) {
		if mw != nil {
			sub.Use(mw)
		}
		fn(sub)
	})
}
