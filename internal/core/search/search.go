// Package search answers ranked text queries over entity content, preferring
// postgres full-text + trigram ranking and degrading to a case-insensitive
// substring scan when that capability is absent.
//
// The mode is chosen once at bind time from Capabilities, never per call;
// both modes return the same Hit shape so callers do not branch on which one
// executed
package search

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"greenhouse/internal/modkit/repokit"
	perr "greenhouse/internal/platform/errors"
)

// Weight is a postgres tsvector weight class
type Weight byte

// Weight classes, title highest
const (
	WeightTitle Weight = 'A'
	WeightLead  Weight = 'B'
	WeightBody  Weight = 'C'
)

// Field is one searchable text column with its rank weight
type Field struct {
	Column string
	Weight Weight
}

// Source describes how one entity type is searched.
// Fields are ordered highest weight first; the first field also feeds the
// trigram similarity pass in ranked mode
type Source struct {
	Table         string
	IDColumn      string
	RecencyColumn string

	// VectorColumn is the precomputed tsvector kept current by a trigger on
	// the owning row; only consulted in ranked mode
	VectorColumn string

	Fields []Field

	// Filterable whitelists columns accepted in Query.Filters
	Filterable map[string]bool
}

// Query is one search request
type Query struct {
	Text    string
	Filters map[string]string
	Limit   int
}

// Hit is a matching entity id with its relevance score.
// Substring mode has no relevance signal and reports 0
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Engine executes search queries for registered entity types
type Engine interface {
	Search(ctx context.Context, entityType string, q Query) ([]Hit, error)
}

// Capabilities reports what the storage backend supports; detected once at
// startup from configuration, not probed per call
type Capabilities struct {
	FullText bool
}

// Limits for result set size
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// fuzzyTokenThreshold: queries at or under this token count get the trigram
// similarity pass to tolerate minor misspellings
const fuzzyTokenThreshold = 3

// NewPG returns a binder selecting the ranked or substring engine from caps
func NewPG(caps Capabilities, sources map[string]Source) repokit.Binder[Engine] {
	if caps.FullText {
		return repokit.BindFunc[Engine](func(q repokit.Queryer) Engine {
			return &ranked{q: q, sources: sources}
		})
	}
	return repokit.BindFunc[Engine](func(q repokit.Queryer) Engine {
		return &substring{q: q, sources: sources}
	})
}

// sourceFor resolves an entity type or fails with invalid-input
func sourceFor(sources map[string]Source, entityType string) (Source, error) {
	s, ok := sources[entityType]
	if !ok {
		return Source{}, perr.InvalidArgf("unknown search entity type %q", entityType)
	}
	if len(s.Fields) == 0 {
		return Source{}, perr.InvalidArgf("search source %q has no fields configured", entityType)
	}
	return s, nil
}

// clampLimit applies default and ceiling
func clampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// filterClause renders whitelisted equality filters starting at arg position
// next; returns sql fragments and args in deterministic column order
func filterClause(src Source, filters map[string]string, next int) ([]string, []any, error) {
	if len(filters) == 0 {
		return nil, nil, nil
	}
	cols := make([]string, 0, len(filters))
	for col := range filters {
		if !src.Filterable[col] {
			return nil, nil, perr.InvalidArgf("column %q is not filterable for %s", col, src.Table)
		}
		cols = append(cols, col)
	}
	// deterministic order keeps generated sql stable for the query planner
	sort.Strings(cols)

	frags := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, col := range cols {
		frags = append(frags, col+" = $"+strconv.Itoa(next+i))
		args = append(args, filters[col])
	}
	return frags, args, nil
}

// tokens splits the raw query text on whitespace
func tokens(text string) []string {
	return strings.Fields(strings.TrimSpace(text))
}
