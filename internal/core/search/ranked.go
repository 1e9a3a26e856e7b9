package search

import (
	"context"
	"strconv"
	"strings"

	"greenhouse/internal/modkit/repokit"
	"greenhouse/internal/platform/store"
)

// ranked executes weighted full-text queries with a trigram assist for short
// queries; requires the pg_trgm extension and a maintained tsvector column
type ranked struct {
	q       repokit.Queryer
	sources map[string]Source
}

// trigramFloor is the minimum similarity() admitting a fuzzy-only match
const trigramFloor = 0.3

func (e *ranked) Search(ctx context.Context, entityType string, q Query) ([]Hit, error) {
	src, err := sourceFor(e.sources, entityType)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return recency(ctx, e.q, src, q)
	}

	fuzzy := len(tokens(text)) <= fuzzyTokenThreshold
	titleCol := src.Fields[0].Column

	args := []any{text}
	var b strings.Builder
	b.WriteString("select t.")
	b.WriteString(src.IDColumn)
	b.WriteString("::text, (ts_rank(t.")
	b.WriteString(src.VectorColumn)
	b.WriteString(", q.query)")
	if fuzzy {
		// fold similarity into the score so near-misses rank below exact
		// full-text matches but above nothing
		b.WriteString(" + similarity(t." + titleCol + ", $1) * 0.5")
	}
	b.WriteString(")::float8 as score from ")
	b.WriteString(src.Table)
	b.WriteString(" t, websearch_to_tsquery('simple', $1) q(query) where (t.")
	b.WriteString(src.VectorColumn)
	b.WriteString(" @@ q.query")
	if fuzzy {
		b.WriteString(" or similarity(t." + titleCol + ", $1) > " + strconv.FormatFloat(trigramFloor, 'f', -1, 64))
	}
	b.WriteString(")")

	frags, fargs, err := filterClause(src, q.Filters, len(args)+1)
	if err != nil {
		return nil, err
	}
	for _, f := range frags {
		b.WriteString(" and t." + f)
	}
	args = append(args, fargs...)

	b.WriteString(" order by score desc, t." + src.RecencyColumn + " desc limit $" + strconv.Itoa(len(args)+1))
	args = append(args, clampLimit(q.Limit))

	return scanHits(ctx, e.q, b.String(), args)
}

// recency serves the empty-query case for both modes: all rows newest first,
// zero scores
func recency(ctx context.Context, q repokit.Queryer, src Source, qq Query) ([]Hit, error) {
	args := []any{}
	var b strings.Builder
	b.WriteString("select t.")
	b.WriteString(src.IDColumn)
	b.WriteString("::text, 0::float8 as score from ")
	b.WriteString(src.Table)
	b.WriteString(" t")

	frags, fargs, err := filterClause(src, qq.Filters, 1)
	if err != nil {
		return nil, err
	}
	for i, f := range frags {
		if i == 0 {
			b.WriteString(" where t." + f)
		} else {
			b.WriteString(" and t." + f)
		}
	}
	args = append(args, fargs...)

	b.WriteString(" order by t." + src.RecencyColumn + " desc limit $" + strconv.Itoa(len(args)+1))
	args = append(args, clampLimit(qq.Limit))

	return scanHits(ctx, q, b.String(), args)
}

// scanHits runs the built statement and maps rows to hits; zero matches is an
// empty slice, never an error
func scanHits(ctx context.Context, q repokit.Queryer, sql string, args []any) ([]Hit, error) {
	out, err := store.Many(ctx, q, func(r store.Row) (Hit, error) {
		var h Hit
		if err := r.Scan(&h.ID, &h.Score); err != nil {
			return Hit{}, err
		}
		return h, nil
	}, sql, args...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Hit{}
	}
	return out, nil
}
