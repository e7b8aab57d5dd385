package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Session is the volatile tier: it lives for the process lifetime only and
// holds the larger, lower-stakes payloads (page slices, cursors, project
// lists).
type Session struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewSession() *Session {
	return &Session{entries: make(map[string]Entry)}
}

func (s *Session) Get(ctx context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	return entry, ok, nil
}

func (s *Session) Set(ctx context.Context, key string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make(json.RawMessage, len(data))
	copy(buf, data)
	s.entries[key] = Entry{Data: buf, Timestamp: time.Now()}
	return nil
}

func (s *Session) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Clear drops every entry, the equivalent of ending the session.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
}
