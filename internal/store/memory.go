package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemoryGateway is an in-process Gateway with the same query semantics as the
// REST one. It backs tests and local development without a hosted store.
type MemoryGateway struct {
	mu   sync.RWMutex
	root map[string]any
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{root: make(map[string]any)}
}

func (g *MemoryGateway) Get(ctx context.Context, path string, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	g.mu.RLock()
	node, ok := g.lookup(path)
	g.mu.RUnlock()
	if !ok || node == nil {
		return false, nil
	}

	data, err := json.Marshal(node)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func (g *MemoryGateway) GetRange(ctx context.Context, path string, q Query) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	node, ok := g.lookup(path)
	g.mu.RUnlock()
	if !ok || node == nil {
		return nil, nil
	}

	children, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("range over non-object path %s", path)
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = OrderByKey
	}

	entries := make([]Entry, 0, len(children))
	for key, value := range children {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", path, key, err)
		}
		entries = append(entries, Entry{Key: key, Value: data})
	}
	sortEntries(entries, orderBy)

	filtered := entries[:0]
	for _, e := range entries {
		v := orderValue(e, orderBy)
		if q.EqualTo != nil && v != *q.EqualTo {
			continue
		}
		if q.StartAt != nil && v < *q.StartAt {
			continue
		}
		if q.EndAt != nil && v > *q.EndAt {
			continue
		}
		filtered = append(filtered, e)
	}

	if q.LimitToFirst > 0 && len(filtered) > q.LimitToFirst {
		filtered = filtered[:q.LimitToFirst]
	}
	if q.LimitToLast > 0 && len(filtered) > q.LimitToLast {
		filtered = filtered[len(filtered)-q.LimitToLast:]
	}

	out := make([]Entry, len(filtered))
	copy(out, filtered)
	return out, nil
}

func (g *MemoryGateway) Set(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	normalized, err := normalize(value)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.put(path, normalized)
}

func (g *MemoryGateway) Patch(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for field, value := range fields {
		normalized, err := normalize(value)
		if err != nil {
			return err
		}
		if err := g.put(Join(path, field), normalized); err != nil {
			return err
		}
	}
	return nil
}

func (g *MemoryGateway) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.put(path, nil)
}

func (g *MemoryGateway) Push(ctx context.Context, path string, value any) (string, error) {
	key := NewPushID()
	if err := g.Set(ctx, Join(path, key), value); err != nil {
		return "", err
	}
	return key, nil
}

// normalize round-trips a value through JSON so the tree only ever holds
// plain maps, slices and scalars.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return out, nil
}

func (g *MemoryGateway) lookup(path string) (any, bool) {
	path = Join(path)
	if path == "" {
		return g.root, true
	}

	var node any = g.root
	for _, segment := range strings.Split(path, "/") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

func (g *MemoryGateway) put(path string, value any) error {
	path = Join(path)
	if path == "" {
		if value == nil {
			g.root = make(map[string]any)
			return nil
		}
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("root value must be an object")
		}
		g.root = m
		return nil
	}

	segments := strings.Split(path, "/")
	node := g.root
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[segment] = child
		}
		node = child
	}

	last := segments[len(segments)-1]
	if value == nil {
		delete(node, last)
		return nil
	}
	node[last] = value
	return nil
}
