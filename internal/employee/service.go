package employee

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/listing"
	"github.com/talentdesk/backoffice/internal/store"
)

// Accounts is the identity collaborator: creating an account yields the
// stable key the employee record is stored under.
type Accounts interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
	DeleteAccount(ctx context.Context, key string) error
}

// IndexEntry is one flat employee index record for the quick list view.
type IndexEntry struct {
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields"`
}

type Config struct {
	PageSize      int
	SearchLimit   int
	IndexFreshFor time.Duration
}

// Service owns the employee screens: paginated listing over users/, search,
// the cached flat index, and the confirmation-gated mutations.
type Service struct {
	gateway  store.Gateway
	durable  cache.Cache
	accounts Accounts
	pager    *listing.Pager
	searcher *listing.Searcher
	logger   *slog.Logger

	indexFreshFor time.Duration
	now           func() time.Time
}

func NewService(gateway store.Gateway, durable, session cache.Cache, accounts Accounts, cfg Config, logger *slog.Logger) *Service {
	pager := listing.NewPager(gateway, session, listing.Config{
		Path:     usersPath,
		PageSize: cfg.PageSize,
		Filter:   NotClient,
	}, logger)

	searcher := listing.NewSearcher(gateway, listing.SearchConfig{
		Path:         usersPath,
		ExactField:   "workEmail",
		PrefixFields: []string{"firstName", "lastName"},
		Limit:        cfg.SearchLimit,
		Filter:       NotClient,
	}, logger)

	return &Service{
		gateway:       gateway,
		durable:       durable,
		accounts:      accounts,
		pager:         pager,
		searcher:      searcher,
		logger:        logger,
		indexFreshFor: cfg.IndexFreshFor,
		now:           time.Now,
	}
}

// ListPage returns one display page of the employee table.
func (s *Service) ListPage(ctx context.Context, page int) (listing.Page, error) {
	result, err := s.pager.Page(ctx, page)
	if err != nil {
		s.logger.Error("employee listing failed", "page", page, "error", err)
		return listing.Page{}, internal.NewExternalError("Could not load employees", internal.ErrCodeStoreUnavailable, err)
	}
	return result, nil
}

// Search replaces the listing with a small merged result set.
func (s *Service) Search(ctx context.Context, term string) ([]listing.Record, error) {
	results, err := s.searcher.Search(ctx, term)
	if err != nil {
		s.logger.Error("employee search failed", "error", err)
		return nil, internal.NewExternalError("Could not search employees", internal.ErrCodeStoreUnavailable, err)
	}
	return results, nil
}

// Index returns the flat employee index, served from the durable cache while
// it is inside its freshness window unless force is set.
func (s *Service) Index(ctx context.Context, force bool) ([]IndexEntry, error) {
	if !force {
		var cached map[string]map[string]string
		entry, ok, err := cache.GetJSON(ctx, s.durable, indexCacheKey, &cached)
		if err != nil {
			s.logger.Warn("employee index cache read failed", "error", err)
		} else if ok && entry.Fresh(s.indexFreshFor) {
			return sortedIndex(cached), nil
		}
	}

	entries, err := s.gateway.GetRange(ctx, indexPath, store.Query{OrderBy: store.OrderByKey})
	if err != nil {
		s.logger.Error("employee index fetch failed", "error", err)
		return nil, internal.NewExternalError("Could not load employee index", internal.ErrCodeStoreUnavailable, err)
	}

	index := make(map[string]map[string]string, len(entries))
	for _, e := range entries {
		var fields map[string]string
		if err := json.Unmarshal(e.Value, &fields); err != nil {
			s.logger.Warn("skipping malformed index record", "key", e.Key)
			continue
		}
		index[e.Key] = fields
	}

	if err := cache.SetJSON(ctx, s.durable, indexCacheKey, index); err != nil {
		s.logger.Warn("employee index cache write failed", "error", err)
	}

	return sortedIndex(index), nil
}

// InvalidateListing drops cached employee pages. Collaborators that mutate
// employee records from outside this package call it after their writes.
func (s *Service) InvalidateListing(ctx context.Context) {
	s.pager.Invalidate(ctx)
}

func (s *Service) Get(ctx context.Context, key string) (*Employee, error) {
	var emp Employee
	found, err := s.gateway.Get(ctx, store.Join(usersPath, key), &emp)
	if err != nil {
		s.logger.Error("employee read failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not load employee", internal.ErrCodeStoreUnavailable, err)
	}
	if !found {
		return nil, internal.ErrEmployeeNotFound
	}
	emp.Key = key
	return &emp, nil
}

// Create registers the account first (that yields the record key), then
// writes the employee record and patches local state.
func (s *Service) Create(ctx context.Context, dto CreateEmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	key, err := s.accounts.CreateAccount(ctx, dto.Email, dto.Password)
	if err != nil {
		return nil, err
	}

	emp := Employee{
		FirstName:      dto.FirstName,
		LastName:       dto.LastName,
		Email:          dto.Email,
		WorkEmail:      dto.WorkEmail,
		Phone:          dto.Phone,
		FunctionalRole: dto.FunctionalRole,
		AccountStatus:  StatusPending,
		DepartmentID:   dto.DepartmentID,
		CreatedAt:      s.now().Format(time.RFC3339),
	}

	if err := s.gateway.Set(ctx, store.Join(usersPath, key), emp); err != nil {
		// The account exists but the record write failed; the operator can
		// retry the whole creation, the email conflict will point at it.
		s.logger.Error("employee record write failed after account creation",
			"key", key,
			"error", err)
		return nil, internal.NewExternalError("Could not save employee record", internal.ErrCodeStoreUnavailable, err)
	}

	emp.Key = key
	s.pager.Invalidate(ctx)
	s.patchIndexCache(ctx, key, indexFields(emp))

	s.logger.Info("employee created", "key", key, "role", emp.FunctionalRole)

	return &emp, nil
}

// PreviewUpdate computes the change summary shown in the confirmation
// dialog without writing anything.
func (s *Service) PreviewUpdate(ctx context.Context, key string, dto UpdateEmployeeDTO) (ChangeSummary, error) {
	if err := dto.Validate(); err != nil {
		return ChangeSummary{}, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	original, err := s.Get(ctx, key)
	if err != nil {
		return ChangeSummary{}, err
	}

	return Diff(*original, dto.apply(*original)), nil
}

// Update applies an edit. An empty diff performs no write; a classification
// change (role, status, department) requires confirmed=true and otherwise
// comes back as a confirmation-required conflict carrying the diff.
func (s *Service) Update(ctx context.Context, key string, dto UpdateEmployeeDTO, confirmed bool) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	original, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	updated := dto.apply(*original)
	summary := Diff(*original, updated)

	if summary.Empty() {
		return nil, internal.ErrNoChanges
	}
	if summary.HasClassificationChange() && !confirmed {
		return nil, internal.ErrConfirmationRequired.WithDetails(summary)
	}

	patch := make(map[string]any, len(summary.Changes))
	for _, change := range summary.Changes {
		switch change.Field {
		case "firstName":
			patch["firstName"] = updated.FirstName
		case "lastName":
			patch["lastName"] = updated.LastName
		case "email":
			patch["email"] = updated.Email
		case "workEmail":
			patch["workEmail"] = updated.WorkEmail
		case "phone":
			patch["phone"] = updated.Phone
		case fieldFunctionalRole:
			patch["functionalRole"] = updated.FunctionalRole
		case fieldAccountStatus:
			patch["accountStatus"] = updated.AccountStatus
		case fieldDepartment:
			// nil clears the reference in the store
			patch["departmentId"] = updated.DepartmentID
		}
	}

	if err := s.gateway.Patch(ctx, store.Join(usersPath, key), patch); err != nil {
		s.logger.Error("employee update failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not save employee", internal.ErrCodeStoreUnavailable, err)
	}

	s.pager.Invalidate(ctx)
	s.patchIndexCache(ctx, key, indexFields(updated))

	s.logger.Info("employee updated", "key", key, "changes", summary.String())

	return &updated, nil
}

// Delete removes the record and its account. It always requires explicit
// confirmation; the refusal carries the identifying fields the dialog shows.
func (s *Service) Delete(ctx context.Context, key string, confirmed bool) error {
	emp, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if !confirmed {
		return internal.ErrConfirmationRequired.WithDetails(map[string]string{
			"key":   key,
			"name":  emp.DisplayName(),
			"email": emp.Email,
		})
	}

	if err := s.gateway.Delete(ctx, store.Join(usersPath, key)); err != nil {
		s.logger.Error("employee delete failed", "key", key, "error", err)
		return internal.NewExternalError("Could not delete employee", internal.ErrCodeStoreUnavailable, err)
	}
	if err := s.accounts.DeleteAccount(ctx, key); err != nil {
		s.logger.Warn("account cleanup failed after employee delete", "key", key, "error", err)
	}

	s.pager.Invalidate(ctx)
	s.dropFromIndexCache(ctx, key)

	s.logger.Info("employee deleted", "key", key, "operator", internal.OperatorFromContext(ctx))

	return nil
}

// patchIndexCache merges one entry into the cached index list so the list
// view reflects the mutation without a refetch. Read-then-write, no
// transaction; concurrent writers can overwrite each other.
func (s *Service) patchIndexCache(ctx context.Context, key string, fields map[string]string) {
	var cached map[string]map[string]string
	_, ok, err := cache.GetJSON(ctx, s.durable, indexCacheKey, &cached)
	if err != nil || !ok {
		return
	}
	cached[key] = fields
	if err := cache.SetJSON(ctx, s.durable, indexCacheKey, cached); err != nil {
		s.logger.Warn("employee index cache patch failed", "key", key, "error", err)
	}
}

func (s *Service) dropFromIndexCache(ctx context.Context, key string) {
	var cached map[string]map[string]string
	_, ok, err := cache.GetJSON(ctx, s.durable, indexCacheKey, &cached)
	if err != nil || !ok {
		return
	}
	delete(cached, key)
	if err := cache.SetJSON(ctx, s.durable, indexCacheKey, cached); err != nil {
		s.logger.Warn("employee index cache patch failed", "key", key, "error", err)
	}
}

func indexFields(e Employee) map[string]string {
	department := ""
	if e.DepartmentID != nil {
		department = *e.DepartmentID
	}
	return map[string]string{
		"key":        e.Key,
		"firstName":  e.FirstName,
		"lastName":   e.LastName,
		"email":      e.Email,
		"workEmail":  e.WorkEmail,
		"phone":      e.Phone,
		"role":       e.FunctionalRole,
		"department": department,
		"status":     string(e.AccountStatus),
	}
}

func sortedIndex(index map[string]map[string]string) []IndexEntry {
	entries := make([]IndexEntry, 0, len(index))
	for key, fields := range index {
		entries = append(entries, IndexEntry{Key: key, Fields: fields})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}
