package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/store"
)

// Filter decides whether a fetched record may be shown. Filtering happens
// before slicing to the display size so filtered-out records never under-fill
// a page.
type Filter func(e store.Entry) bool

// Record is one displayable row out of a page or search.
type Record struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// Page is one display slice plus whether the collection continues past the
// fetched window.
type Page struct {
	Number  int      `json:"number"`
	Records []Record `json:"records"`
	HasMore bool     `json:"has_more"`
}

// Config describes one paginated collection.
type Config struct {
	// Path of the collection in the remote store.
	Path string
	// PageSize is the display size; the raw fetch window is BufferFactor
	// times larger to absorb post-filtering.
	PageSize     int
	BufferFactor int
	Filter       Filter
}

// Pager walks a key-ordered collection forward using last-key cursors. Pages
// and cursors are kept in the session cache so back/forward navigation within
// one session avoids refetching.
type Pager struct {
	gateway store.Gateway
	session cache.Cache
	logger  *slog.Logger

	path     string
	pageSize int
	buffer   int
	filter   Filter

	mu         sync.Mutex
	cachedUpTo int
}

func NewPager(gateway store.Gateway, session cache.Cache, cfg Config, logger *slog.Logger) *Pager {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	factor := cfg.BufferFactor
	if factor <= 0 {
		factor = 3
	}

	return &Pager{
		gateway:  gateway,
		session:  session,
		logger:   logger,
		path:     cfg.Path,
		pageSize: pageSize,
		buffer:   pageSize * factor,
		filter:   cfg.Filter,
	}
}

// Page returns page number n, serving it from the session cache when it was
// already fetched this session. A missing cursor for n-1 falls back to page 1
// rather than failing.
func (p *Pager) Page(ctx context.Context, n int) (Page, error) {
	if n < 1 {
		n = 1
	}

	var cached Page
	if _, ok, err := cache.GetJSON(ctx, p.session, p.pageKey(n), &cached); err == nil && ok {
		return cached, nil
	}

	var entries []store.Entry
	var err error

	if n == 1 {
		entries, err = p.gateway.GetRange(ctx, p.path, store.Query{
			OrderBy:      store.OrderByKey,
			LimitToFirst: p.buffer,
		})
		if err != nil {
			return Page{}, fmt.Errorf("fetch page 1 of %s: %w", p.path, err)
		}
	} else {
		cursor, ok := p.cursor(ctx, n-1)
		if !ok {
			p.logger.Warn("pagination cursor missing, falling back to first page",
				"path", p.path,
				"page", n)
			return p.Page(ctx, 1)
		}

		// startAt is inclusive, so fetch one extra and drop the cursor echo.
		entries, err = p.gateway.GetRange(ctx, p.path, store.Query{
			OrderBy:      store.OrderByKey,
			StartAt:      &cursor,
			LimitToFirst: p.buffer + 1,
		})
		if err != nil {
			return Page{}, fmt.Errorf("fetch page %d of %s: %w", n, p.path, err)
		}
		if len(entries) > 0 && entries[0].Key == cursor {
			entries = entries[1:]
		}
	}

	hasMore := len(entries) >= p.buffer

	display := make([]Record, 0, p.pageSize)
	for _, e := range entries {
		if p.filter != nil && !p.filter(e) {
			continue
		}
		display = append(display, Record{Key: e.Key, Data: e.Value})
		if len(display) == p.pageSize {
			break
		}
	}

	page := Page{Number: n, Records: display, HasMore: hasMore}

	if len(entries) > 0 {
		lastRawKey := entries[len(entries)-1].Key
		if err := cache.SetJSON(ctx, p.session, p.cursorKey(n), lastRawKey); err != nil {
			p.logger.Warn("failed to cache cursor", "path", p.path, "page", n, "error", err)
		}
	}
	if err := cache.SetJSON(ctx, p.session, p.pageKey(n), page); err != nil {
		p.logger.Warn("failed to cache page", "path", p.path, "page", n, "error", err)
	}

	p.mu.Lock()
	if n > p.cachedUpTo {
		p.cachedUpTo = n
	}
	p.mu.Unlock()

	return page, nil
}

// Invalidate drops every cached page and cursor so the next read refetches.
// Called after mutations that change the collection's key set.
func (p *Pager) Invalidate(ctx context.Context) {
	p.mu.Lock()
	upTo := p.cachedUpTo
	p.cachedUpTo = 0
	p.mu.Unlock()

	for n := 1; n <= upTo; n++ {
		_ = p.session.Delete(ctx, p.pageKey(n))
		_ = p.session.Delete(ctx, p.cursorKey(n))
	}
}

func (p *Pager) cursor(ctx context.Context, n int) (string, bool) {
	var cursor string
	if _, ok, err := cache.GetJSON(ctx, p.session, p.cursorKey(n), &cursor); err != nil || !ok {
		return "", false
	}
	return cursor, cursor != ""
}

func (p *Pager) pageKey(n int) string {
	return fmt.Sprintf("pager:%s:page:%d", p.path, n)
}

func (p *Pager) cursorKey(n int) string {
	return fmt.Sprintf("pager:%s:cursor:%d", p.path, n)
}
