// Package repo provides postgres access for funding calls
package repo

import (
	"context"

	"greenhouse/internal/modkit/repokit"
	"greenhouse/internal/platform/store"
)

// Repo defines the repository contract for funding calls
type Repo interface {
	Insert(ctx context.Context, row RowCall) error
	Update(ctx context.Context, row RowCall) error
	BySlug(ctx context.Context, slug string) (RowCall, error)
	ByIDs(ctx context.Context, ids []string) ([]RowCall, error)
	List(ctx context.Context, status string, limit, offset int) ([]RowCall, int, error)
}

// RowCall represents a funding call row from the database
type RowCall struct {
	ID        string
	Slug      string
	Title     string
	Summary   string
	Body      string
	Status    string
	CreatedAt string
	UpdatedAt string
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Insert writes a new call. A slug collision surfaces as the raw unique
// violation so the allocator can classify it
func (r *queries) Insert(ctx context.Context, row RowCall) error {
	const sql = `
insert into calls (id, slug, title, summary, body, status)
values ($1, $2, $3, $4, $5, $6)
`
	_, err := store.Exec(ctx, r.q, sql, row.ID, row.Slug, row.Title, row.Summary, row.Body, row.Status)
	return err
}

func (r *queries) Update(ctx context.Context, row RowCall) error {
	const sql = `
update calls
set title = $2, summary = $3, body = $4, status = $5, updated_at = now()
where id = $1
`
	return store.ExecOne(ctx, r.q, sql, row.ID, row.Title, row.Summary, row.Body, row.Status)
}

func (r *queries) BySlug(ctx context.Context, slug string) (RowCall, error) {
	const sql = selectCols + ` where slug = $1`
	return store.One(ctx, r.q, scanCall, sql, slug)
}

func (r *queries) ByIDs(ctx context.Context, ids []string) ([]RowCall, error) {
	if len(ids) == 0 {
		return []RowCall{}, nil
	}
	const sql = selectCols + ` where id = any($1)`
	return store.Many(ctx, r.q, scanCall, sql, ids)
}

func (r *queries) List(ctx context.Context, status string, limit, offset int) ([]RowCall, int, error) {
	const sql = `
select id::text, slug, title, summary, body, status::text,
created_at::text, updated_at::text, count(*) over() as total
from calls
where ($1 = '' or status::text = $1)
order by updated_at desc
limit $2 offset $3
`
	total := 0
	rows, err := store.Many(ctx, r.q, func(row repokit.Row) (RowCall, error) {
		var rr RowCall
		err := row.Scan(
			&rr.ID,
			&rr.Slug,
			&rr.Title,
			&rr.Summary,
			&rr.Body,
			&rr.Status,
			&rr.CreatedAt,
			&rr.UpdatedAt,
			&total,
		)
		return rr, err
	}, sql, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

const selectCols = `
select id::text, slug, title, summary, body, status::text, created_at::text, updated_at::text
from calls
`

func scanCall(row repokit.Row) (RowCall, error) {
	var rr RowCall
	err := row.Scan(
		&rr.ID,
		&rr.Slug,
		&rr.Title,
		&rr.Summary,
		&rr.Body,
		&rr.Status,
		&rr.CreatedAt,
		&rr.UpdatedAt,
	)
	return rr, err
}
