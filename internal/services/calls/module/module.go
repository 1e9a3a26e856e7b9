// Package module wires funding calls into the API using modkit
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
	callshttp "greenhouse/internal/services/calls/http"
	callsrepo "greenhouse/internal/services/calls/repo"
	callssvc "greenhouse/internal/services/calls/service"
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

	svc callssvc.Service
}

// New constructs a calls module with the provided dependencies and options
func New(deps modkit.Deps, inf Infra, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("calls"), modkit.WithPrefix("/calls")}, opts...)...)

	svc := callssvc.New(deps.PG, callsrepo.NewPG(), inf.Search, inf.Alloc, inf.Cache, inf.Keys, inf.Inv)

	m := &Module{
		deps:   deps,
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		svc:    svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		callshttp.Register(r, m.svc, inf.Guards)
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

// Service exposes the calls service for cross-module use
func (m *Module) Service() callssvc.Service { return m.svc }
