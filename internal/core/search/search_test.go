package search

import (
	"context"
	"strings"
	"testing"

	perr "greenhouse/internal/platform/errors"
	"greenhouse/internal/platform/store"
)

// fakeQueryer records the statement it receives and serves canned hit rows
type fakeQueryer struct {
	lastSQL  string
	lastArgs []any
	rows     [][2]any // id, score
	err      error
}

func (f *fakeQueryer) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	f.lastSQL, f.lastArgs = sql, args
	return nil, f.err
}

func (f *fakeQueryer) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	f.lastSQL, f.lastArgs = sql, args
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{rows: f.rows}, nil
}

func (f *fakeQueryer) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	f.lastSQL, f.lastArgs = sql, args
	return &fakeRows{rows: f.rows}
}

type fakeRows struct {
	rows [][2]any
	idx  int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	*dest[0].(*string) = row[0].(string)
	*dest[1].(*float64) = row[1].(float64)
	return nil
}

func (r *fakeRows) Err() error        { return nil }
func (r *fakeRows) Close()            {}
func (r *fakeRows) Columns() []string { return []string{"id", "score"} }

func testSources() map[string]Source {
	return map[string]Source{
		"call": {
			Table:         "calls",
			IDColumn:      "id",
			RecencyColumn: "updated_at",
			VectorColumn:  "search_vector",
			Fields: []Field{
				{Column: "title", Weight: WeightTitle},
				{Column: "summary", Weight: WeightLead},
				{Column: "body", Weight: WeightBody},
			},
			Filterable: map[string]bool{"status": true},
		},
	}
}

func bindEngine(t *testing.T, fullText bool, q *fakeQueryer) Engine {
	t.Helper()
	return NewPG(Capabilities{FullText: fullText}, testSources()).Bind(q)
}

func TestNewPG_SelectsModeOnceFromCapabilities(t *testing.T) {
	fq := &fakeQueryer{}

	if _, ok := bindEngine(t, true, fq).(*ranked); !ok {
		t.Fatalf("full-text capability must bind the ranked engine")
	}
	if _, ok := bindEngine(t, false, fq).(*substring); !ok {
		t.Fatalf("missing full-text capability must bind the substring engine")
	}
}

func TestRanked_QueryShapeAndHits(t *testing.T) {
	fq := &fakeQueryer{rows: [][2]any{
		{"id-1", 0.91},
		{"id-2", 0.40},
	}}
	e := bindEngine(t, true, fq)

	hits, err := e.Search(context.Background(), "call", Query{Text: "agrotec"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "id-1" || hits[0].Score != 0.91 {
		t.Fatalf("unexpected hits %v", hits)
	}

	sql := fq.lastSQL
	for _, want := range []string{
		"ts_rank(t.search_vector",
		"websearch_to_tsquery('simple', $1)",
		"order by score desc, t.updated_at desc",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql missing %q:\n%s", want, sql)
		}
	}
	if fq.lastArgs[0] != "agrotec" {
		t.Fatalf("first arg = %v want query text", fq.lastArgs[0])
	}
}

func TestRanked_ShortQueriesGetTrigramAssist(t *testing.T) {
	fq := &fakeQueryer{}
	e := bindEngine(t, true, fq)

	if _, err := e.Search(context.Background(), "call", Query{Text: "agrotc"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !strings.Contains(fq.lastSQL, "similarity(t.title, $1)") {
		t.Fatalf("one-token query must include the trigram pass:\n%s", fq.lastSQL)
	}

	long := "uma consulta com muitos tokens pra desligar o fuzzy"
	if _, err := e.Search(context.Background(), "call", Query{Text: long}); err != nil {
		t.Fatalf("Search long: %v", err)
	}
	if strings.Contains(fq.lastSQL, "similarity(") {
		t.Fatalf("long queries must skip the trigram pass:\n%s", fq.lastSQL)
	}
}

func TestRanked_EmptyQueryFallsBackToRecency(t *testing.T) {
	fq := &fakeQueryer{rows: [][2]any{{"id-9", 0.0}}}
	e := bindEngine(t, true, fq)

	hits, err := e.Search(context.Background(), "call", Query{Text: "   "})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Score != 0 {
		t.Fatalf("empty query must return zero scores, got %v", hits)
	}
	if strings.Contains(fq.lastSQL, "ts_rank") {
		t.Fatalf("empty query must not rank:\n%s", fq.lastSQL)
	}
	if !strings.Contains(fq.lastSQL, "order by t.updated_at desc") {
		t.Fatalf("empty query must order by recency:\n%s", fq.lastSQL)
	}
}

func TestSubstring_QueryShapeEscapesWildcards(t *testing.T) {
	fq := &fakeQueryer{rows: [][2]any{{"id-3", 0.0}}}
	e := bindEngine(t, false, fq)

	hits, err := e.Search(context.Background(), "call", Query{Text: "100%_done"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Score != 0 {
		t.Fatalf("substring hits carry zero scores, got %v", hits)
	}

	sql := fq.lastSQL
	for _, col := range []string{"title", "summary", "body"} {
		if !strings.Contains(sql, "t."+col+" ilike $1") {
			t.Fatalf("sql must scan column %s:\n%s", col, sql)
		}
	}
	if fq.lastArgs[0] != `%100\%\_done%` {
		t.Fatalf("wildcards must be escaped, got %v", fq.lastArgs[0])
	}
}

func TestSubstring_EmptyQueryFallsBackToRecency(t *testing.T) {
	fq := &fakeQueryer{}
	e := bindEngine(t, false, fq)

	if _, err := e.Search(context.Background(), "call", Query{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if strings.Contains(fq.lastSQL, "ilike") {
		t.Fatalf("empty query must not scan:\n%s", fq.lastSQL)
	}
	if !strings.Contains(fq.lastSQL, "order by t.updated_at desc") {
		t.Fatalf("empty query must order by recency:\n%s", fq.lastSQL)
	}
}

func TestSearch_ZeroMatchesIsEmptySliceNotError(t *testing.T) {
	for _, fullText := range []bool{true, false} {
		fq := &fakeQueryer{}
		e := bindEngine(t, fullText, fq)

		hits, err := e.Search(context.Background(), "call", Query{Text: "nomatch"})
		if err != nil {
			t.Fatalf("fullText=%v Search: %v", fullText, err)
		}
		if hits == nil || len(hits) != 0 {
			t.Fatalf("fullText=%v want empty slice, got %#v", fullText, hits)
		}
	}
}

func TestSearch_UnknownEntityTypeRejected(t *testing.T) {
	for _, fullText := range []bool{true, false} {
		e := bindEngine(t, fullText, &fakeQueryer{})
		_, err := e.Search(context.Background(), "mystery", Query{Text: "x"})
		if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("fullText=%v expected invalid argument, got %v", fullText, err)
		}
	}
}

func TestSearch_FiltersAreWhitelistedAndOrdered(t *testing.T) {
	fq := &fakeQueryer{}
	e := bindEngine(t, true, fq)

	if _, err := e.Search(context.Background(), "call", Query{
		Text:    "agrotec",
		Filters: map[string]string{"status": "open"},
	}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !strings.Contains(fq.lastSQL, "and t.status = $2") {
		t.Fatalf("filter clause missing:\n%s", fq.lastSQL)
	}
	if fq.lastArgs[1] != "open" {
		t.Fatalf("filter arg = %v want open", fq.lastArgs[1])
	}

	_, err := e.Search(context.Background(), "call", Query{
		Text:    "agrotec",
		Filters: map[string]string{"slug": "x"},
	})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("non-whitelisted filter must be rejected, got %v", err)
	}
}

func TestSearch_LimitClamping(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{25, 25},
		{MaxLimit + 100, MaxLimit},
	}
	for _, tc := range cases {
		fq := &fakeQueryer{}
		e := bindEngine(t, true, fq)
		if _, err := e.Search(context.Background(), "call", Query{Text: "x", Limit: tc.in}); err != nil {
			t.Fatalf("Search: %v", err)
		}
		got := fq.lastArgs[len(fq.lastArgs)-1]
		if got != tc.want {
			t.Fatalf("limit %d rendered as %v want %d", tc.in, got, tc.want)
		}
	}
}
