package listing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/talentdesk/backoffice/internal/store"
)

// prefixCeiling is appended to a prefix term to form the upper bound of a
// range query, the conventional "last possible character" sentinel.
const prefixCeiling = ""

const defaultSearchLimit = 10

// SearchConfig names the children search queries run against.
type SearchConfig struct {
	Path string
	// ExactField is matched with an equality query when the term looks like
	// an email address (contains "@").
	ExactField string
	// PrefixFields are each matched with a prefix range query and the
	// results merged by key.
	PrefixFields []string
	Limit        int
	Filter       Filter
}

// Searcher bypasses pagination: it replaces the listing with a small merged
// result set until the term is cleared.
type Searcher struct {
	gateway store.Gateway
	logger  *slog.Logger
	cfg     SearchConfig
}

func NewSearcher(gateway store.Gateway, cfg SearchConfig, logger *slog.Logger) *Searcher {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultSearchLimit
	}
	return &Searcher{gateway: gateway, logger: logger, cfg: cfg}
}

// Search runs the exact-match query for email-shaped terms, otherwise prefix
// queries over every configured name field, deduplicating records matched by
// more than one field.
func (s *Searcher) Search(ctx context.Context, term string) ([]Record, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	merged := make(map[string]store.Entry)

	if strings.Contains(term, "@") {
		entries, err := s.gateway.GetRange(ctx, s.cfg.Path, store.Query{
			OrderBy:      s.cfg.ExactField,
			EqualTo:      &term,
			LimitToFirst: s.cfg.Limit,
		})
		if err != nil {
			return nil, fmt.Errorf("search %s by %s: %w", s.cfg.Path, s.cfg.ExactField, err)
		}
		for _, e := range entries {
			merged[e.Key] = e
		}
	} else {
		end := term + prefixCeiling
		for _, field := range s.cfg.PrefixFields {
			entries, err := s.gateway.GetRange(ctx, s.cfg.Path, store.Query{
				OrderBy:      field,
				StartAt:      &term,
				EndAt:        &end,
				LimitToFirst: s.cfg.Limit,
			})
			if err != nil {
				return nil, fmt.Errorf("search %s by %s: %w", s.cfg.Path, field, err)
			}
			for _, e := range entries {
				merged[e.Key] = e
			}
		}
	}

	results := make([]Record, 0, len(merged))
	for _, e := range merged {
		if s.cfg.Filter != nil && !s.cfg.Filter(e) {
			continue
		}
		results = append(results, Record{Key: e.Key, Data: e.Value})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })

	s.logger.Debug("search completed", "path", s.cfg.Path, "term", term, "results", len(results))

	return results, nil
}
