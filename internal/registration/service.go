package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/listing"
	"github.com/talentdesk/backoffice/internal/store"
)

// Page is one display slice of the registration index.
type Page struct {
	Number  int           `json:"number"`
	Records []IndexRecord `json:"records"`
	HasMore bool          `json:"has_more"`
}

type Config struct {
	PageSize int
}

// Service lists client service registrations from the flat index and loads
// the full nested record for the detail view.
type Service struct {
	gateway store.Gateway
	pager   *listing.Pager
	logger  *slog.Logger
}

func NewService(gateway store.Gateway, session cache.Cache, cfg Config, logger *slog.Logger) *Service {
	pager := listing.NewPager(gateway, session, listing.Config{
		Path:     indexPath,
		PageSize: cfg.PageSize,
	}, logger)

	return &Service{
		gateway: gateway,
		pager:   pager,
		logger:  logger,
	}
}

// ListPage returns one display page of the registration index.
func (s *Service) ListPage(ctx context.Context, page int) (Page, error) {
	raw, err := s.pager.Page(ctx, page)
	if err != nil {
		s.logger.Error("registration listing failed", "page", page, "error", err)
		return Page{}, internal.NewExternalError("Could not load registrations", internal.ErrCodeStoreUnavailable, err)
	}

	records := make([]IndexRecord, 0, len(raw.Records))
	for _, r := range raw.Records {
		var fields map[string]string
		if err := json.Unmarshal(r.Data, &fields); err != nil {
			s.logger.Warn("skipping malformed registration index record", "key", r.Key)
			continue
		}
		records = append(records, IndexRecord{Key: r.Key, Fields: fields})
	}

	return Page{Number: raw.Number, Records: records, HasMore: raw.HasMore}, nil
}

// Get loads the full nested registration the index row points at. The source
// keys come from the row itself, never from parsing the composite row key.
func (s *Service) Get(ctx context.Context, indexKey string) (*Registration, error) {
	var row map[string]string
	found, err := s.gateway.Get(ctx, store.Join(indexPath, indexKey), &row)
	if err != nil {
		s.logger.Error("registration index read failed", "key", indexKey, "error", err)
		return nil, internal.NewExternalError("Could not load registration", internal.ErrCodeStoreUnavailable, err)
	}
	if !found {
		return nil, internal.ErrRegistrationNotFound
	}

	clientKey, registrationKey := row["clientKey"], row["registrationKey"]
	if clientKey == "" || registrationKey == "" {
		return nil, internal.NewValidationError(
			fmt.Sprintf("registration index record %q is missing its source keys", indexKey),
			internal.ErrCodeValidationFailed,
		)
	}

	var fields map[string]any
	path := store.Join(clientsPath, clientKey, "serviceRegistrations", registrationKey)
	found, err = s.gateway.Get(ctx, path, &fields)
	if err != nil {
		s.logger.Error("registration read failed", "key", indexKey, "error", err)
		return nil, internal.NewExternalError("Could not load registration", internal.ErrCodeStoreUnavailable, err)
	}
	if !found {
		return nil, internal.ErrRegistrationNotFound
	}

	return &Registration{
		ClientKey:       clientKey,
		RegistrationKey: registrationKey,
		Fields:          fields,
	}, nil
}

// InvalidateListing drops cached index pages, called after an index rebuild.
func (s *Service) InvalidateListing(ctx context.Context) {
	s.pager.Invalidate(ctx)
}
