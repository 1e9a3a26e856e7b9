// Package service contains startup workflows
package service

import (
	"context"
	"encoding/json"

	"greenhouse/internal/core/search"
	"greenhouse/internal/core/slug"
	"greenhouse/internal/modkit/repokit"
	"greenhouse/internal/platform/cache"
	"greenhouse/internal/services/startups/domain"
	"greenhouse/internal/services/startups/repo"

	"github.com/google/uuid"
)

// EntityType is the cache and search namespace for startups
const EntityType = "startup"

// Service defines the service contract for startups
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

// New creates a new startups service
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
		panic("startups.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("startups.Service requires a non nil Repo binder")
	}
	if engine == nil {
		panic("startups.Service requires a non nil search binder")
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

// Create registers a startup under a slug derived from its name
func (s *Svc) Create(ctx context.Context, in domain.CreateStartupInput) (domain.Startup, error) {
	id := uuid.NewString()

	allocated, err := s.alloc.Allocate(ctx, in.Name, func(ctx context.Context, candidate string) error {
		return s.Repo.Insert(ctx, repo.RowStartup{
			ID:     id,
			Slug:   candidate,
			Name:   in.Name,
			Pitch:  in.Pitch,
			Sector: in.Sector,
		})
	})
	if err != nil {
		return domain.Startup{}, err
	}

	s.inv.OnEntitySaved(ctx, EntityType, allocated)

	row, err := s.Repo.BySlug(ctx, allocated)
	if err != nil {
		return domain.Startup{}, err
	}
	return toStartup(row), nil
}

// GetBySlug serves a startup through the read-through detail cache
func (s *Svc) GetBySlug(ctx context.Context, slugged string) (domain.Startup, error) {
	key, err := s.keys.Detail(s.inv.Generation(ctx), EntityType, slugged)
	if err != nil {
		return domain.Startup{}, err
	}

	b, err := s.cache.GetOrFill(ctx, key, cache.DetailTTL, func(ctx context.Context) ([]byte, error) {
		row, err := s.Repo.BySlug(ctx, slugged)
		if err != nil {
			return nil, err
		}
		return json.Marshal(toStartup(row))
	})
	if err != nil {
		return domain.Startup{}, err
	}

	var out domain.Startup
	if err := json.Unmarshal(b, &out); err != nil {
		return domain.Startup{}, err
	}
	return out, nil
}

// Search runs the bound engine and hydrates hits in rank order
func (s *Svc) Search(ctx context.Context, in domain.SearchStartupsInput) ([]domain.StartupHit, error) {
	filters := map[string]string{}
	if in.Sector != "" {
		filters["sector"] = in.Sector
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
		return []domain.StartupHit{}, nil
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	rows, err := s.Repo.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]repo.RowStartup, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	out := make([]domain.StartupHit, 0, len(hits))
	for _, h := range hits {
		row, ok := byID[h.ID]
		if !ok {
			continue
		}
		out = append(out, domain.StartupHit{Startup: toStartup(row), Score: h.Score})
	}
	return out, nil
}

func toStartup(r repo.RowStartup) domain.Startup {
	return domain.Startup{
		ID:        r.ID,
		Slug:      r.Slug,
		Name:      r.Name,
		Pitch:     r.Pitch,
		Sector:    r.Sector,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
