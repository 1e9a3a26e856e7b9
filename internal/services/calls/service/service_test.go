package service

import (
	"context"
	"io"
	"testing"

	"greenhouse/internal/core/search"
	"greenhouse/internal/core/slug"
	"greenhouse/internal/modkit/repokit"
	"greenhouse/internal/platform/cache"
	perr "greenhouse/internal/platform/errors"
	"greenhouse/internal/platform/store"
	"greenhouse/internal/services/calls/domain"
	"greenhouse/internal/services/calls/repo"

	"github.com/rs/zerolog"
)

var testLog = zerolog.New(io.Discard)

// fakeTx satisfies the TxRunner seam; the fake repo never touches SQL so the
// queryer methods are inert
type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (fakeTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (fakeTx) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (f fakeTx) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	return fn(f)
}

// fakeRepo is an in-memory calls table keyed by slug with a unique constraint
type fakeRepo struct {
	bySlug map[string]repo.RowCall

	insertCalls int
	bySlugCalls int
	listCalls   int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{bySlug: map[string]repo.RowCall{}} }

func (f *fakeRepo) binder() repokit.Binder[repo.Repo] {
	return repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return f })
}

func (f *fakeRepo) Insert(_ context.Context, row repo.RowCall) error {
	f.insertCalls++
	if _, taken := f.bySlug[row.Slug]; taken {
		return perr.DuplicateKeyf("slug %q already exists", row.Slug)
	}
	row.CreatedAt = "2026-03-01T10:00:00Z"
	row.UpdatedAt = row.CreatedAt
	f.bySlug[row.Slug] = row
	return nil
}

func (f *fakeRepo) Update(_ context.Context, row repo.RowCall) error {
	for slug, r := range f.bySlug {
		if r.ID == row.ID {
			row.Slug = slug
			f.bySlug[slug] = row
			return nil
		}
	}
	return perr.ErrNotFound
}

func (f *fakeRepo) BySlug(_ context.Context, slug string) (repo.RowCall, error) {
	f.bySlugCalls++
	r, ok := f.bySlug[slug]
	if !ok {
		return repo.RowCall{}, perr.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) ByIDs(_ context.Context, ids []string) ([]repo.RowCall, error) {
	var out []repo.RowCall
	for _, id := range ids {
		for _, r := range f.bySlug {
			if r.ID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, status string, limit, offset int) ([]repo.RowCall, int, error) {
	f.listCalls++
	var out []repo.RowCall
	for _, r := range f.bySlug {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

// fakeEngine serves preset hits
type fakeEngine struct {
	hits []search.Hit
	last search.Query
}

func (f *fakeEngine) Search(_ context.Context, _ string, q search.Query) ([]search.Hit, error) {
	f.last = q
	return f.hits, nil
}

func (f *fakeEngine) binder() repokit.Binder[search.Engine] {
	return repokit.BindFunc[search.Engine](func(repokit.Queryer) search.Engine { return f })
}

func newTestSvc(t *testing.T, r *fakeRepo, e *fakeEngine) *Svc {
	t.Helper()
	ctx := context.Background()
	kv := cache.NewMemory(ctx)
	keys := cache.MustKeys("gh", "1")
	return New(
		fakeTx{},
		r.binder(),
		e.binder(),
		slug.NewAllocator(0, 0),
		cache.New(kv, testLog),
		keys,
		cache.NewInvalidator(kv, keys, testLog),
	)
}

func TestCreate_HonorsConfiguredAllocatorBounds(t *testing.T) {
	r := newFakeRepo()
	ctx := context.Background()
	kv := cache.NewMemory(ctx)
	keys := cache.MustKeys("gh", "1")
	s := New(
		fakeTx{},
		r.binder(),
		(&fakeEngine{}).binder(),
		slug.NewAllocator(0, 2),
		cache.New(kv, testLog),
		keys,
		cache.NewInvalidator(kv, keys, testLog),
	)

	if _, err := s.Create(ctx, domain.CreateCallInput{Title: "Edital 2026"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, domain.CreateCallInput{Title: "Edital 2026"}); err != nil {
		t.Fatalf("Create with suffix: %v", err)
	}

	// the retry bound comes from the allocator we were handed, not a default
	_, err := s.Create(ctx, domain.CreateCallInput{Title: "Edital 2026"})
	if !perr.IsCode(err, perr.ErrorCodeSlugExhausted) {
		t.Fatalf("expected exhaustion at the configured retry bound, got %v", err)
	}
	if r.insertCalls != 5 {
		t.Fatalf("insertCalls = %d want 5", r.insertCalls)
	}
}

func TestCreate_AllocatesSlugFromTitle(t *testing.T) {
	r := newFakeRepo()
	s := newTestSvc(t, r, &fakeEngine{})

	out, err := s.Create(context.Background(), domain.CreateCallInput{Title: "Edital Agrotec 2026"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if out.Slug != "edital-agrotec-2026" {
		t.Fatalf("slug = %q", out.Slug)
	}
	if out.Status != "draft" {
		t.Fatalf("default status = %q want draft", out.Status)
	}
	if out.ID == "" {
		t.Fatalf("id must be assigned")
	}
}

func TestCreate_CollidingTitlesGetSuffixes(t *testing.T) {
	r := newFakeRepo()
	s := newTestSvc(t, r, &fakeEngine{})

	first, err := s.Create(context.Background(), domain.CreateCallInput{Title: "Edital 2026"})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := s.Create(context.Background(), domain.CreateCallInput{Title: "Edital 2026"})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first.Slug != "edital-2026" || second.Slug != "edital-2026-2" {
		t.Fatalf("slugs = %q, %q", first.Slug, second.Slug)
	}
}

func TestCreate_UnsluggableTitleRejected(t *testing.T) {
	s := newTestSvc(t, newFakeRepo(), &fakeEngine{})

	_, err := s.Create(context.Background(), domain.CreateCallInput{Title: "***"})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestGetBySlug_ReadsThroughCache(t *testing.T) {
	r := newFakeRepo()
	s := newTestSvc(t, r, &fakeEngine{})

	created, err := s.Create(context.Background(), domain.CreateCallInput{Title: "Edital 2026"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r.bySlugCalls = 0

	for i := 0; i < 3; i++ {
		got, err := s.GetBySlug(context.Background(), created.Slug)
		if err != nil {
			t.Fatalf("GetBySlug %d: %v", i, err)
		}
		if got.Slug != created.Slug || got.Title != "Edital 2026" {
			t.Fatalf("unexpected call %+v", got)
		}
	}
	if r.bySlugCalls != 1 {
		t.Fatalf("storage reads = %d want 1 (cache must serve repeats)", r.bySlugCalls)
	}
}

func TestGetBySlug_UnknownSlugIsNotFoundAndNotCached(t *testing.T) {
	r := newFakeRepo()
	s := newTestSvc(t, r, &fakeEngine{})

	for i := 0; i < 2; i++ {
		if _, err := s.GetBySlug(context.Background(), "ghost"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if r.bySlugCalls != 2 {
		t.Fatalf("misses must not be cached, reads = %d", r.bySlugCalls)
	}
}

func TestUpdate_InvalidatesDetailCache(t *testing.T) {
	r := newFakeRepo()
	s := newTestSvc(t, r, &fakeEngine{})

	created, err := s.Create(context.Background(), domain.CreateCallInput{Title: "Edital 2026"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.GetBySlug(context.Background(), created.Slug); err != nil {
		t.Fatalf("warm read: %v", err)
	}

	if _, err := s.Update(context.Background(), created.Slug, domain.UpdateCallInput{Status: "open"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.GetBySlug(context.Background(), created.Slug)
	if err != nil {
		t.Fatalf("post-update read: %v", err)
	}
	if got.Status != "open" {
		t.Fatalf("stale read after update: %+v", got)
	}
}

func TestList_CachesUntilNextSave(t *testing.T) {
	r := newFakeRepo()
	s := newTestSvc(t, r, &fakeEngine{})

	if _, err := s.Create(context.Background(), domain.CreateCallInput{Title: "Edital A"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 3; i++ {
		out, err := s.List(context.Background(), domain.ListCallsInput{})
		if err != nil {
			t.Fatalf("List %d: %v", i, err)
		}
		if out.Total != 1 {
			t.Fatalf("total = %d want 1", out.Total)
		}
	}
	if r.listCalls != 1 {
		t.Fatalf("storage lists = %d want 1", r.listCalls)
	}

	// a save bumps the epoch; the next list must refetch and see the new row
	if _, err := s.Create(context.Background(), domain.CreateCallInput{Title: "Edital B"}); err != nil {
		t.Fatalf("second Create: %v", err)
	}
	out, err := s.List(context.Background(), domain.ListCallsInput{})
	if err != nil {
		t.Fatalf("List after save: %v", err)
	}
	if out.Total != 2 {
		t.Fatalf("total after save = %d want 2", out.Total)
	}
	if r.listCalls != 2 {
		t.Fatalf("storage lists = %d want 2", r.listCalls)
	}
}

func TestSearch_HydratesHitsInRankOrder(t *testing.T) {
	r := newFakeRepo()
	e := &fakeEngine{}
	s := newTestSvc(t, r, e)

	a, _ := s.Create(context.Background(), domain.CreateCallInput{Title: "Edital Agrotec"})
	b, _ := s.Create(context.Background(), domain.CreateCallInput{Title: "Edital Fintech"})

	e.hits = []search.Hit{
		{ID: b.ID, Score: 0.9},
		{ID: a.ID, Score: 0.4},
		{ID: "deleted-meanwhile", Score: 0.1},
	}

	out, err := s.Search(context.Background(), domain.SearchCallsInput{Query: "edital"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("hydrated hits = %d want 2 (unknown ids skipped)", len(out))
	}
	if out[0].Call.ID != b.ID || out[0].Score != 0.9 {
		t.Fatalf("rank order lost: %+v", out[0])
	}
	if out[1].Call.ID != a.ID {
		t.Fatalf("second hit = %+v", out[1])
	}
}

func TestSearch_StatusFilterIsForwarded(t *testing.T) {
	e := &fakeEngine{}
	s := newTestSvc(t, newFakeRepo(), e)

	if _, err := s.Search(context.Background(), domain.SearchCallsInput{Query: "x", Status: "open"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if e.last.Filters["status"] != "open" {
		t.Fatalf("filters = %v", e.last.Filters)
	}
	if _, err := s.Search(context.Background(), domain.SearchCallsInput{Query: "x"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(e.last.Filters) != 0 {
		t.Fatalf("empty status must not emit a filter, got %v", e.last.Filters)
	}
}
