package slug

import (
	"context"
	"strconv"

	perr "greenhouse/internal/platform/errors"
)

// Defaults match the slug column width in the schema and a retry bound that
// is generous for a collision pattern that is rare in practice
const (
	DefaultMaxLen      = 50
	DefaultMaxAttempts = 10
)

// InsertFunc performs one persistence attempt with the candidate slug.
// It must report a unique-constraint violation through an error that
// perr.IsDuplicateKey recognizes; any other error aborts allocation.
// The surrounding write must be idempotent per attempt: no other side
// effects may fire before the slug is finalized
type InsertFunc func(ctx context.Context, slug string) error

// Allocator resolves slug collisions between concurrent writers by
// treating the storage unique constraint as the single authority: attempt
// the insert, and on conflict retry with the next numeric suffix. There is
// no existence pre-check (inherently racy) and no lock; retries are
// immediate since collisions are cheap to resolve and rare
type Allocator struct {
	MaxLen      int
	MaxAttempts int
}

// NewAllocator builds an Allocator with defaults filled in.
// MaxLen must leave at least one base character next to the widest suffix
// ("-<MaxAttempts>"); values too small to ever render a legal candidate fall
// back to the default rather than producing over-length slugs
func NewAllocator(maxLen, maxAttempts int) Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	minLen := len(strconv.Itoa(maxAttempts)) + 2
	if maxLen < minLen {
		maxLen = DefaultMaxLen
	}
	return Allocator{MaxLen: maxLen, MaxAttempts: maxAttempts}
}

// Allocate normalizes base and drives insert until it commits with a unique
// slug. Candidates are base, base-2, base-3, ... each truncated so suffix
// room never pushes past MaxLen. Exceeding MaxAttempts returns a permanent
// ErrorCodeSlugExhausted failure
func (a Allocator) Allocate(ctx context.Context, base string, insert InsertFunc) (string, error) {
	normalized := Normalize(base)
	if normalized == "" {
		return "", perr.InvalidArgf("slug base %q has no sluggable characters", base)
	}

	for attempt := 1; attempt <= a.MaxAttempts; attempt++ {
		candidate := a.candidate(normalized, attempt)
		err := insert(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if !perr.IsDuplicateKey(err) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", perr.SlugExhaustedf(
		"slug %q still colliding after %d attempts", normalized, a.MaxAttempts,
	)
}

// candidate renders the nth candidate; attempt 1 is the bare base and
// attempt n>1 appends "-n"
func (a Allocator) candidate(base string, attempt int) string {
	if attempt == 1 {
		return Truncate(base, a.MaxLen)
	}
	suffix := string(Separator) + strconv.Itoa(attempt)
	return Truncate(base, a.MaxLen-len(suffix)) + suffix
}
