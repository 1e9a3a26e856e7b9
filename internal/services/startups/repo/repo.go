// Package repo provides postgres access for startups
package repo

import (
	"context"

	"greenhouse/internal/modkit/repokit"
	"greenhouse/internal/platform/store"
)

// Repo defines the repository contract for startups
type Repo interface {
	Insert(ctx context.Context, row RowStartup) error
	BySlug(ctx context.Context, slug string) (RowStartup, error)
	ByIDs(ctx context.Context, ids []string) ([]RowStartup, error)
}

// RowStartup represents a startup row from the database
type RowStartup struct {
	ID        string
	Slug      string
	Name      string
	Pitch     string
	Sector    string
	CreatedAt string
	UpdatedAt string
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Insert writes a new startup. A slug collision surfaces as the raw unique
// violation so the allocator can classify it
func (r *queries) Insert(ctx context.Context, row RowStartup) error {
	const sql = `
insert into startups (id, slug, name, pitch, sector)
values ($1, $2, $3, $4, $5)
`
	_, err := store.Exec(ctx, r.q, sql, row.ID, row.Slug, row.Name, row.Pitch, row.Sector)
	return err
}

func (r *queries) BySlug(ctx context.Context, slug string) (RowStartup, error) {
	const sql = selectCols + ` where slug = $1`
	return store.One(ctx, r.q, scanStartup, sql, slug)
}

func (r *queries) ByIDs(ctx context.Context, ids []string) ([]RowStartup, error) {
	if len(ids) == 0 {
		return []RowStartup{}, nil
	}
	const sql = selectCols + ` where id = any($1)`
	return store.Many(ctx, r.q, scanStartup, sql, ids)
}

const selectCols = `
select id::text, slug, name, pitch, sector, created_at::text, updated_at::text
from startups
`

func scanStartup(row repokit.Row) (RowStartup, error) {
	var rr RowStartup
	err := row.Scan(
		&rr.ID,
		&rr.Slug,
		&rr.Name,
		&rr.Pitch,
		&rr.Sector,
		&rr.CreatedAt,
		&rr.UpdatedAt,
	)
	return rr, err
}
