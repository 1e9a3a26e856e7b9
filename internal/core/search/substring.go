package search

import (
	"context"
	"strconv"
	"strings"

	"greenhouse/internal/modkit/repokit"
)

// substring is the degraded engine for backends without full-text support:
// case-insensitive containment of the raw query across the configured
// fields, ordered by recency, no relevance scores
type substring struct {
	q       repokit.Queryer
	sources map[string]Source
}

func (e *substring) Search(ctx context.Context, entityType string, q Query) ([]Hit, error) {
	src, err := sourceFor(e.sources, entityType)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return recency(ctx, e.q, src, q)
	}

	args := []any{"%" + escapeLike(text) + "%"}
	var b strings.Builder
	b.WriteString("select t.")
	b.WriteString(src.IDColumn)
	b.WriteString("::text, 0::float8 as score from ")
	b.WriteString(src.Table)
	b.WriteString(" t where (")
	for i, f := range src.Fields {
		if i > 0 {
			b.WriteString(" or ")
		}
		b.WriteString("t." + f.Column + " ilike $1")
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

	b.WriteString(" order by t." + src.RecencyColumn + " desc limit $" + strconv.Itoa(len(args)+1))
	args = append(args, clampLimit(q.Limit))

	return scanHits(ctx, e.q, b.String(), args)
}

// escapeLike neutralizes LIKE wildcards in user input so the query matches
// the literal substring
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
