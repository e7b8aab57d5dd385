package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// OrderByKey orders a range query by the entry keys themselves rather than
// by a named child field.
const OrderByKey = "$key"

// Entry is one key/value pair out of a range query, in query order. Range
// results come back as JSON objects, so order has to be carried explicitly.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Query describes a range read over the children of a path. Bounds compare
// against the key (OrderByKey) or the string value of the named child.
type Query struct {
	OrderBy      string
	StartAt      *string
	EndAt        *string
	EqualTo      *string
	LimitToFirst int
	LimitToLast  int
}

// Gateway abstracts the hosted tree-shaped document store. All operations are
// context-bound; failures are connectivity or permission problems that callers
// surface to the user rather than crash on.
type Gateway interface {
	// Get reads the value at path into dest. Returns false when the path
	// holds nothing.
	Get(ctx context.Context, path string, dest any) (bool, error)
	// GetRange reads an ordered window of the children of path.
	GetRange(ctx context.Context, path string, q Query) ([]Entry, error)
	// Set overwrites the whole subtree at path.
	Set(ctx context.Context, path string, value any) error
	// Patch merges fields into path. With path == "" the field names are
	// absolute paths and the write is the store's batched multi-path patch.
	Patch(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the subtree at path.
	Delete(ctx context.Context, path string) error
	// Push stores value under a fresh chronologically ordered key and
	// returns that key.
	Push(ctx context.Context, path string, value any) (string, error)
}

// ErrUnavailable marks connectivity or permission failures talking to the
// remote store.
var ErrUnavailable = errors.New("store unavailable")

// Join builds a slash-separated path, skipping empty segments.
func Join(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, "/")
}

// orderValue extracts the string an entry sorts by for the given ordering.
// Non-string children compare by their raw JSON text, which is good enough
// for the name/email children the listing layer queries on.
func orderValue(e Entry, orderBy string) string {
	if orderBy == "" || orderBy == OrderByKey {
		return e.Key
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(e.Value, &fields); err != nil {
		return ""
	}
	raw, ok := fields[orderBy]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func sortEntries(entries []Entry, orderBy string) {
	sort.SliceStable(entries, func(i, j int) bool {
		vi, vj := orderValue(entries[i], orderBy), orderValue(entries[j], orderBy)
		if vi == vj {
			return entries[i].Key < entries[j].Key
		}
		return vi < vj
	})
}
