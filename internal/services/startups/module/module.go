// Package module wires startups into the API using modkit
package module

import (
	"net/http"

	"greenhouse/internal/core/search"
	"greenhouse/internal/core/slug"
	modkit "greenhouse/internal/modkit"
	"greenhouse/internal/modkit/httpkit"
	"greenhouse/internal/modkit/repokit"
	"greenhouse/internal/platform/cache"
	str "greenhouse/internal/platform/strings"
	startupshttp "greenhouse/internal/services/startups/http"
	startupsrepo "greenhouse/internal/services/startups/repo"
	startupssvc "greenhouse/internal/services/startups/service"
)

// Infra carries the shared cache, slug and search plumbing built once in api.Mount
type Infra struct {
	Keys   *cache.Keys
	Cache  *cache.Cache
	Inv    *cache.Invalidator
	Alloc  slug.Allocator
	Search repokit.Binder[search.Engine]
	Guards httpkit.Guards
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws      []func(http.Handler) http.Handler
	register func(httpkit.Router)

	svc startupssvc.Service
}

// New constructs a startups module with the provided dependencies and options
func New(deps modkit.Deps, inf Infra, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("startups"), modkit.WithPrefix("/startups")}, opts...)...)

	svc := startupssvc.New(deps.PG, startupsrepo.NewPG(), inf.Search, inf.Alloc, inf.Cache, inf.Keys, inf.Inv)

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		startupshttp.Register(r, m.svc, inf.Guards)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Service exposes the startups service for cross-module use
func (m *Module) Service() startupssvc.Service { return m.svc }
