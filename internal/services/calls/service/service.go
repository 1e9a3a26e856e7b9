// Package service contains funding call workflows
package service

import (
	"context"
	"encoding/json"
	"strconv"

	"greenhouse/internal/core/search"
	"greenhouse/internal/core/slug"
	"greenhouse/internal/modkit/repokit"
	"greenhouse/internal/platform/cache"
	"greenhouse/internal/services/calls/domain"
	"greenhouse/internal/services/calls/repo"

	"github.com/google/uuid"
)

// EntityType is the cache and search namespace for funding calls
const EntityType = "call"

const (
	defaultPageSize = 20
	defaultStatus   = "draft"
)

// Service defines the service contract for funding calls
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	search search.Engine
	alloc  slug.Allocator

	cache *cache.Cache
	keys  *cache.Keys
	inv   *cache.Invalidator
}

// New creates a new calls service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[repo.Repo],
	engine repokit.Binder[search.Engine],
	alloc slug.Allocator,
	c *cache.Cache,
	keys *cache.Keys,
	inv *cache.Invalidator,
) *Svc {
	if db == nil {
		panic("calls.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("calls.Service requires a non nil Repo binder")
	}
	if engine == nil {
		panic("calls.Service requires a non nil search binder")
	}
	return &Svc{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
		search: engine.Bind(db),
		alloc:  alloc,
		cache:  c,
		keys:   keys,
		inv:    inv,
	}
}

// Create inserts a new call under a slug derived from its title.
// Each insert attempt runs as its own implicit transaction; a unique violation
// must not poison an enclosing tx, so there is none
func (s *Svc) Create(ctx context.Context, in domain.CreateCallInput) (domain.Call, error) {
	id := uuid.NewString()
	status := in.Status
	if status == "" {
		status = defaultStatus
	}

	allocated, err := s.alloc.Allocate(ctx, in.Title, func(ctx context.Context, candidate string) error {
		return s.Repo.Insert(ctx, repo.RowCall{
			ID:      id,
			Slug:    candidate,
			Title:   in.Title,
			Summary: in.Summary,
			Body:    in.Body,
			Status:  status,
		})
	})
	if err != nil {
		return domain.Call{}, err
	}

	// the insert is committed; stale listings go now
	s.inv.OnEntitySaved(ctx, EntityType, allocated)

	row, err := s.Repo.BySlug(ctx, allocated)
	if err != nil {
		return domain.Call{}, err
	}
	return toCall(row), nil
}

// Update patches a call by slug inside one transaction and invalidates its
// cache entries after commit
func (s *Svc) Update(ctx context.Context, slugged string, in domain.UpdateCallInput) (domain.Call, error) {
	var out repo.RowCall
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		row, err := r.BySlug(ctx, slugged)
		if err != nil {
			return err
		}
		if in.Title != "" {
			row.Title = in.Title
		}
		if in.Summary != "" {
			row.Summary = in.Summary
		}
		if in.Body != "" {
			row.Body = in.Body
		}
		if in.Status != "" {
			row.Status = in.Status
		}
		if err := r.Update(ctx, row); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return domain.Call{}, err
	}

	s.inv.OnEntitySaved(ctx, EntityType, slugged)
	return toCall(out), nil
}

// GetBySlug serves a call through the read-through detail cache
func (s *Svc) GetBySlug(ctx context.Context, slugged string) (domain.Call, error) {
	key, err := s.keys.Detail(s.inv.Generation(ctx), EntityType, slugged)
	if err != nil {
		return domain.Call{}, err
	}

	b, err := s.cache.GetOrFill(ctx, key, cache.DetailTTL, func(ctx context.Context) ([]byte, error) {
		row, err := s.Repo.BySlug(ctx, slugged)
		if err != nil {
			return nil, err
		}
		return json.Marshal(toCall(row))
	})
	if err != nil {
		return domain.Call{}, err
	}

	var c domain.Call
	if err := json.Unmarshal(b, &c); err != nil {
		return domain.Call{}, err
	}
	return c, nil
}

// List serves a page of calls through the epoch-scoped listing cache
func (s *Svc) List(ctx context.Context, in domain.ListCallsInput) (domain.CallList, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 {
		size = defaultPageSize
	}

	epoch := s.inv.Epoch(ctx, EntityType)
	key, err := s.keys.Listing(s.inv.Generation(ctx), EntityType, epoch, map[string]string{
		"status": in.Status,
		"page":   strconv.Itoa(page),
		"size":   strconv.Itoa(size),
	})
	if err != nil {
		return domain.CallList{}, err
	}

	b, err := s.cache.GetOrFill(ctx, key, cache.ListingTTL, func(ctx context.Context) ([]byte, error) {
		rows, total, err := s.Repo.List(ctx, in.Status, size, (page-1)*size)
		if err != nil {
			return nil, err
		}
		out := domain.CallList{Items: make([]domain.Call, 0, len(rows)), Total: total}
		for _, r := range rows {
			out.Items = append(out.Items, toCall(r))
		}
		return json.Marshal(out)
	})
	if err != nil {
		return domain.CallList{}, err
	}

	var out domain.CallList
	if err := json.Unmarshal(b, &out); err != nil {
		return domain.CallList{}, err
	}
	return out, nil
}

// Search runs the bound engine and hydrates hits in rank order
func (s *Svc) Search(ctx context.Context, in domain.SearchCallsInput) ([]domain.CallHit, error) {
	filters := map[string]string{}
	if in.Status != "" {
		filters["status"] = in.Status
	}

	hits, err := s.search.Search(ctx, EntityType, search.Query{
		Text:    in.Query,
		Filters: filters,
		Limit:   in.Limit,
	})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []domain.CallHit{}, nil
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	rows, err := s.Repo.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]repo.RowCall, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	out := make([]domain.CallHit, 0, len(hits))
	for _, h := range hits {
		row, ok := byID[h.ID]
		if !ok {
			// deleted between rank and hydrate; skip rather than 500
			continue
		}
		out = append(out, domain.CallHit{Call: toCall(row), Score: h.Score})
	}
	return out, nil
}

func toCall(r repo.RowCall) domain.Call {
	return domain.Call{
		ID:        r.ID,
		Slug:      r.Slug,
		Title:     r.Title,
		Summary:   r.Summary,
		Body:      r.Body,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
