// Package cache provides versioned cache keys, a read-through helper over the
// shared key/value store, and save-triggered invalidation
package cache

import (
	"fmt"
	"sort"
	"strings"

	perr "greenhouse/internal/platform/errors"
)

// Param is a single named key parameter
type Param struct {
	Name  string
	Value string
}

// P is shorthand for building a Param inline
func P(name, value string) Param { return Param{Name: name, Value: value} }

// Keys renders namespaced, versioned cache keys.
// Rendered form: <prefix>.v<version>.g<gen>_<logical>:<name>=<value>,...
// Params are sorted by name before serializing so insertion order never
// changes the rendered string.
//
// The generation is not registry state: it lives in the shared kv store (see
// Invalidator.Generation) so a ClearAll in one process instance orphans keys
// for every instance, and is passed in explicitly per render
type Keys struct {
	prefix  string
	version string
}

// NewKeys builds a registry from the configured global prefix and version token
func NewKeys(prefix, version string) (*Keys, error) {
	if err := checkIdent(prefix); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "cache key prefix")
	}
	if err := checkIdent(version); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "cache version token")
	}
	return &Keys{prefix: prefix, version: version}, nil
}

// MustKeys is NewKeys that panics, for wiring paths where inputs are static
func MustKeys(prefix, version string) *Keys {
	k, err := NewKeys(prefix, version)
	if err != nil {
		panic(err)
	}
	return k
}

// Build renders a key for a logical namespace and parameter set under the
// given generation. Pure with respect to its arguments and the registry
// configuration: identical params in any order produce the identical string
func (k *Keys) Build(gen int64, logical string, params ...Param) (string, error) {
	if err := checkIdent(logical); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "cache key logical name")
	}

	seen := make(map[string]struct{}, len(params))
	sorted := make([]Param, len(params))
	copy(sorted, params)
	for _, p := range sorted {
		if err := checkIdent(p.Name); err != nil {
			return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "cache key param name")
		}
		if _, dup := seen[p.Name]; dup {
			return "", perr.InvalidArgf("duplicate cache key param %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	fmt.Fprintf(&b, "%s.v%s.g%d_%s", k.prefix, k.version, gen, logical)
	for i, p := range sorted {
		if i == 0 {
			b.WriteByte(':')
		} else {
			b.WriteByte(',')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(sanitizeValue(p.Value))
	}
	return b.String(), nil
}

// Detail renders the single-entity key cleared on that entity's save
func (k *Keys) Detail(gen int64, entityType, id string) (string, error) {
	if err := checkIdent(entityType); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "cache entity type")
	}
	if strings.TrimSpace(id) == "" {
		return "", perr.InvalidArgf("empty entity id for detail key")
	}
	return k.Build(gen, "detail", P("type", entityType), P("id", id))
}

// Listing renders a listing-family key. The per-type epoch is folded in so
// bumping the epoch invalidates every filter combination without enumerating
// them
func (k *Keys) Listing(gen int64, entityType string, epoch int64, filters map[string]string) (string, error) {
	if err := checkIdent(entityType); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "cache entity type")
	}
	params := make([]Param, 0, len(filters)+2)
	params = append(params, P("type", entityType), P("epoch", fmt.Sprintf("%d", epoch)))
	for name, val := range filters {
		if err := checkIdent(name); err != nil {
			return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "listing filter name")
		}
		params = append(params, P("f_"+name, val))
	}
	return k.Build(gen, "listing", params...)
}

// epochKey is where the per-type listing epoch counter lives in the kv store.
// It deliberately omits the generation so ClearAll does not reset epochs
func (k *Keys) epochKey(entityType string) string {
	return fmt.Sprintf("%s.v%s_epoch:type=%s", k.prefix, k.version, entityType)
}

// genKey is where the shared generation counter lives in the kv store; every
// process instance renders keys against this one counter so ClearAll is
// visible cluster-wide
func (k *Keys) genKey() string {
	return fmt.Sprintf("%s.v%s_gen", k.prefix, k.version)
}

// checkIdent enforces non-empty identifiers free of the rendering separators
func checkIdent(s string) error {
	if strings.TrimSpace(s) == "" {
		return perr.InvalidArgf("empty identifier")
	}
	if strings.ContainsAny(s, ":,= \t\n") {
		return perr.InvalidArgf("identifier %q contains reserved characters", s)
	}
	return nil
}

// sanitizeValue keeps rendered keys parseable by replacing separator
// characters inside values; values are data so they are mangled, not rejected
func sanitizeValue(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', ',', '=', ' ', '\t', '\n':
			return '~'
		}
		return r
	}, s)
}
