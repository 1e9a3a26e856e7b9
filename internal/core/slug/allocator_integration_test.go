//go:build integration_pg
// +build integration_pg

package slug

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"greenhouse/internal/platform/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres launches a disposable Postgres and returns DSN + stop func
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func openTestStore(t *testing.T, ctx context.Context, dsn string) *store.Store {
	t.Helper()
	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 8},
	}, store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("store open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestAllocator_Integration_SequentialSuffixes(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st := openTestStore(t, ctx, dsn)
	if _, err := st.PG.Exec(ctx, `
		CREATE TABLE calls (
			id   TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			CONSTRAINT calls_slug UNIQUE (slug)
		)
	`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	a := NewAllocator(DefaultMaxLen, DefaultMaxAttempts)
	insert := func(ctx context.Context, slug string) error {
		_, err := st.PG.Exec(ctx,
			`INSERT INTO calls (id, slug) VALUES ($1, $2)`, uuid.NewString(), slug)
		return err
	}

	want := []string{"edital-agrotec", "edital-agrotec-2", "edital-agrotec-3"}
	for i, w := range want {
		got, err := a.Allocate(ctx, "Edital AgroTec", insert)
		if err != nil {
			t.Fatalf("allocate %d: %v", i+1, err)
		}
		if got != w {
			t.Fatalf("allocate %d = %q, want %q", i+1, got, w)
		}
	}
}

func TestAllocator_Integration_ConcurrentWritersGetDistinctSlugs(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st := openTestStore(t, ctx, dsn)
	if _, err := st.PG.Exec(ctx, `
		CREATE TABLE startups (
			id   TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			CONSTRAINT startups_slug UNIQUE (slug)
		)
	`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	a := NewAllocator(DefaultMaxLen, DefaultMaxAttempts)
	insert := func(ctx context.Context, slug string) error {
		_, err := st.PG.Exec(ctx,
			`INSERT INTO startups (id, slug) VALUES ($1, $2)`, uuid.NewString(), slug)
		return err
	}

	const writers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		slugs []string
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := a.Allocate(ctx, "Café & Co", insert)
			if err != nil {
				t.Errorf("allocate: %v", err)
				return
			}
			mu.Lock()
			slugs = append(slugs, got)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(slugs) != writers {
		t.Fatalf("allocated %d slugs, want %d", len(slugs), writers)
	}
	sort.Strings(slugs)
	for i := 1; i < len(slugs); i++ {
		if slugs[i] == slugs[i-1] {
			t.Fatalf("duplicate slug %q", slugs[i])
		}
	}

	// the table is the authority: every row landed exactly once
	var n int
	if err := st.PG.QueryRow(ctx, `SELECT count(*) FROM startups`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != writers {
		t.Fatalf("rows = %d, want %d", n, writers)
	}
}
