// Package api assembles the HTTP API: shared cache and search plumbing,
// rate limit guards, and the service modules
package api

import (
	"time"

	"greenhouse/internal/core/search"
	"greenhouse/internal/core/slug"
	"greenhouse/internal/modkit"
	"greenhouse/internal/modkit/httpkit"
	"greenhouse/internal/platform/cache"
	"greenhouse/internal/platform/config"
	"greenhouse/internal/platform/logger"
	phttp "greenhouse/internal/platform/net/http"
	"greenhouse/internal/platform/ratelimit"
	"greenhouse/internal/platform/store"

	callsmod "greenhouse/internal/services/calls/module"
	callssvc "greenhouse/internal/services/calls/service"
	startupsmod "greenhouse/internal/services/startups/module"
	startupssvc "greenhouse/internal/services/startups/service"
)

// Options are the API options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger logger.Logger
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	cfg := opt.Config
	log := opt.Logger

	deps := modkit.Deps{
		Log: log,
		Cfg: cfg,
		PG:  opt.Store.PG,
		KV:  opt.Store.KV,
	}

	keys := cache.MustKeys(
		cfg.MayString("CACHE_PREFIX", "gh"),
		cfg.MayString("CACHE_VERSION", "1"),
	)
	shared := cache.New(deps.KV, log)
	inv := cache.NewInvalidator(deps.KV, keys, log)

	limiter := ratelimit.New(deps.KV, ratelimit.Config{
		Disabled: cfg.MayBool("RATELIMIT_DISABLED", false),
	}, log)
	window := cfg.MayDuration("RATELIMIT_WINDOW", time.Minute)
	guards := httpkit.Guards{
		Read:  httpkit.Throttle(limiter, "read", cfg.MayInt("RATELIMIT_READ", 120), window),
		Write: httpkit.Throttle(limiter, "write", cfg.MayInt("RATELIMIT_WRITE", 20), window),
	}

	engine := search.NewPG(
		search.Capabilities{FullText: cfg.MayBool("SEARCH_FULLTEXT", true)},
		searchSources(),
	)

	alloc := slug.NewAllocator(
		cfg.MayInt("SLUG_MAX_LEN", slug.DefaultMaxLen),
		cfg.MayInt("SLUG_MAX_ATTEMPTS", slug.DefaultMaxAttempts),
	)

	callsInfra := callsmod.Infra{Keys: keys, Cache: shared, Inv: inv, Alloc: alloc, Search: engine, Guards: guards}
	startupsInfra := startupsmod.Infra{Keys: keys, Cache: shared, Inv: inv, Alloc: alloc, Search: engine, Guards: guards}

	mods := []modkit.Module{
		callsmod.New(deps, callsInfra),
		startupsmod.New(deps, startupsInfra),
	}

	httpkit.MountUnder(r, "/api/v1", httpkit.CommonStack(), func(api httpkit.Router) {
		for _, m := range mods {
			log.Info().Str("module", m.Name()).Msg("mounting module routes")
			m.MountRoutes(api)
		}
	})
}

// searchSources registers how each entity type is searched.
// Vector columns are precomputed tsvectors kept current by row triggers
func searchSources() map[string]search.Source {
	return map[string]search.Source{
		callssvc.EntityType: {
			Table:         "calls",
			IDColumn:      "id",
			RecencyColumn: "updated_at",
			VectorColumn:  "search_vector",
			Fields: []search.Field{
				{Column: "title", Weight: search.WeightTitle},
				{Column: "summary", Weight: search.WeightLead},
				{Column: "body", Weight: search.WeightBody},
			},
			Filterable: map[string]bool{"status": true},
		},
		startupssvc.EntityType: {
			Table:         "startups",
			IDColumn:      "id",
			RecencyColumn: "updated_at",
			VectorColumn:  "search_vector",
			Fields: []search.Field{
				{Column: "name", Weight: search.WeightTitle},
				{Column: "pitch", Weight: search.WeightBody},
			},
			Filterable: map[string]bool{"sector": true},
		},
	}
}
