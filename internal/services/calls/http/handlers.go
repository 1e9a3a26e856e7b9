// Package http provides http transport for funding calls
package http

import (
	stdhttp "net/http"

	"greenhouse/internal/modkit/httpkit"
	"greenhouse/internal/services/calls/domain"
	svc "greenhouse/internal/services/calls/service"
)

// Register mounts funding call endpoints on the given router.
// Mutations sit behind the write guard, queries behind the read guard
func Register(r httpkit.Router, s svc.Service, g httpkit.Guards) {
	h := &handlers{svc: s}
	g.WriteGroup(r, func(w httpkit.Router) {
		httpkit.PostJSON[domain.CreateCallInput](w, "/", h.create)
		httpkit.PatchJSON[domain.UpdateCallInput](w, "/{slug}", h.update)
	})
	g.ReadGroup(r, func(rd httpkit.Router) {
		httpkit.PostJSON[domain.ListCallsInput](rd, "/list", h.list)
		httpkit.PostJSON[domain.SearchCallsInput](rd, "/search", h.search)
		httpkit.Get(rd, "/{slug}", h.get)
	})
}

type handlers struct{ svc svc.Service }

func (h *handlers) create(r *stdhttp.Request, in domain.CreateCallInput) (any, error) {
	out, err := h.svc.Create(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.GetBySlug(r.Context(), httpkit.Param(r, "slug"))
}

func (h *handlers) update(r *stdhttp.Request, in domain.UpdateCallInput) (any, error) {
	return h.svc.Update(r.Context(), httpkit.Param(r, "slug"), in)
}

func (h *handlers) list(r *stdhttp.Request, in domain.ListCallsInput) (any, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	out, err := h.svc.List(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.List(out.Items, out.Total, page, len(out.Items)), nil
}

func (h *handlers) search(r *stdhttp.Request, in domain.SearchCallsInput) (any, error) {
	return h.svc.Search(r.Context(), in)
}
