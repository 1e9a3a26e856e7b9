// Package http provides http transport for startups
package http

import (
	stdhttp "net/http"

	"greenhouse/internal/modkit/httpkit"
	"greenhouse/internal/services/startups/domain"
	svc "greenhouse/internal/services/startups/service"
)

// Register mounts startup endpoints on the given router.
// Mutations sit behind the write guard, queries behind the read guard
func Register(r httpkit.Router, s svc.Service, g httpkit.Guards) {
	h := &handlers{svc: s}
	g.WriteGroup(r, func(w httpkit.Router) {
		httpkit.PostJSON[domain.CreateStartupInput](w, "/", h.create)
	})
	g.ReadGroup(r, func(rd httpkit.Router) {
		httpkit.PostJSON[domain.SearchStartupsInput](rd, "/search", h.search)
		httpkit.Get(rd, "/{slug}", h.get)
	})
}

type handlers struct{ svc svc.Service }

func (h *handlers) create(r *stdhttp.Request, in domain.CreateStartupInput) (any, error) {
	out, err := h.svc.Create(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.GetBySlug(r.Context(), httpkit.Param(r, "slug"))
}

func (h *handlers) search(r *stdhttp.Request, in domain.SearchStartupsInput) (any, error) {
	return h.svc.Search(r.Context(), in)
}
