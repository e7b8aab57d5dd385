package asset

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/store"
)

const searchLimit = 10

// Service owns the equipment ledger: the cached asset list, assignment and
// return transitions, and the available-asset search behind the assignment
// dialog.
type Service struct {
	gateway store.Gateway
	durable cache.Cache
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(gateway store.Gateway, durable cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		gateway: gateway,
		durable: durable,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns every asset. The list is cached durably with no expiry; only a
// mutation or force drops it.
func (s *Service) List(ctx context.Context, force bool) ([]Asset, error) {
	if !force {
		var cached []Asset
		if _, ok, err := cache.GetJSON(ctx, s.durable, listCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	entries, err := s.gateway.GetRange(ctx, assetsPath, store.Query{OrderBy: store.OrderByKey})
	if err != nil {
		s.logger.Error("asset listing failed", "error", err)
		return nil, internal.NewExternalError("Could not load assets", internal.ErrCodeStoreUnavailable, err)
	}

	assets := make([]Asset, 0, len(entries))
	for _, e := range entries {
		var a Asset
		if err := json.Unmarshal(e.Value, &a); err != nil {
			s.logger.Warn("skipping malformed asset record", "key", e.Key)
			continue
		}
		a.Key = e.Key
		assets = append(assets, a)
	}

	if err := cache.SetJSON(ctx, s.durable, listCacheKey, assets); err != nil {
		s.logger.Warn("asset list cache write failed", "error", err)
	}

	return assets, nil
}

// SearchAvailable returns available assets whose name or serial number
// contains the term, for the assignment picker.
func (s *Service) SearchAvailable(ctx context.Context, term string) ([]Asset, error) {
	available := string(StatusAvailable)
	entries, err := s.gateway.GetRange(ctx, assetsPath, store.Query{
		OrderBy: "status",
		EqualTo: &available,
	})
	if err != nil {
		s.logger.Error("available asset search failed", "error", err)
		return nil, internal.NewExternalError("Could not search assets", internal.ErrCodeStoreUnavailable, err)
	}

	term = strings.ToLower(strings.TrimSpace(term))

	results := make([]Asset, 0, searchLimit)
	for _, e := range entries {
		var a Asset
		if err := json.Unmarshal(e.Value, &a); err != nil {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(a.Name), term) &&
			!strings.Contains(strings.ToLower(a.SerialNumber), term) {
			continue
		}
		a.Key = e.Key
		results = append(results, a)
		if len(results) == searchLimit {
			break
		}
	}

	return results, nil
}

func (s *Service) Get(ctx context.Context, key string) (*Asset, error) {
	var a Asset
	found, err := s.gateway.Get(ctx, store.Join(assetsPath, key), &a)
	if err != nil {
		s.logger.Error("asset read failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not load asset", internal.ErrCodeStoreUnavailable, err)
	}
	if !found {
		return nil, internal.ErrAssetNotFound
	}
	a.Key = key
	return &a, nil
}

func (s *Service) Create(ctx context.Context, dto CreateAssetDTO) (*Asset, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	a := Asset{
		Name:         dto.Name,
		Category:     dto.Category,
		SerialNumber: dto.SerialNumber,
		Status:       StatusAvailable,
		CreatedAt:    s.now().Format(time.RFC3339),
	}

	key, err := s.gateway.Push(ctx, assetsPath, a)
	if err != nil {
		s.logger.Error("asset creation failed", "error", err)
		return nil, internal.NewExternalError("Could not create asset", internal.ErrCodeStoreUnavailable, err)
	}

	a.Key = key
	s.dropListCache(ctx)

	s.logger.Info("asset created", "key", key, "name", a.Name)

	return &a, nil
}

func (s *Service) Update(ctx context.Context, key string, dto UpdateAssetDTO) (*Asset, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	a, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if dto.Status != "" && a.Status == StatusAssigned {
		return nil, internal.NewValidationError("asset is assigned and must be returned first", internal.ErrCodeValidationFailed)
	}

	patch := map[string]any{
		"name":         dto.Name,
		"category":     dto.Category,
		"serialNumber": dto.SerialNumber,
	}
	if dto.Status != "" {
		patch["status"] = dto.Status
	}
	if err := s.gateway.Patch(ctx, store.Join(assetsPath, key), patch); err != nil {
		s.logger.Error("asset update failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not save asset", internal.ErrCodeStoreUnavailable, err)
	}

	a.Name = dto.Name
	a.Category = dto.Category
	a.SerialNumber = dto.SerialNumber
	if dto.Status != "" {
		a.Status = dto.Status
	}
	s.dropListCache(ctx)

	return a, nil
}

// Assign hands an available asset to an employee. Anything other than an
// available asset is refused, so an asset can never be assigned twice.
func (s *Service) Assign(ctx context.Context, key, employeeKey string) (*Asset, error) {
	a, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusAvailable {
		return nil, internal.ErrAssetNotAvailable
	}
	if err := s.checkEmployee(ctx, employeeKey); err != nil {
		return nil, err
	}

	assignedDate := s.now().Format(ledgerDateLayout)
	patch := map[string]any{
		"status":       StatusAssigned,
		"assignedTo":   employeeKey,
		"assignedDate": assignedDate,
		// a previous return no longer applies
		"returnDate": nil,
	}
	if err := s.gateway.Patch(ctx, store.Join(assetsPath, key), patch); err != nil {
		s.logger.Error("asset assignment failed", "key", key, "employee", employeeKey, "error", err)
		return nil, internal.NewExternalError("Could not assign asset", internal.ErrCodeStoreUnavailable, err)
	}

	a.Status = StatusAssigned
	a.AssignedTo = &employeeKey
	a.AssignedDate = assignedDate
	a.ReturnDate = nil
	s.dropListCache(ctx)

	s.logger.Info("asset assigned", "key", key, "employee", employeeKey, "operator", internal.OperatorFromContext(ctx))

	return a, nil
}

// Return takes an assigned asset back into the available pool, stamping the
// return date.
func (s *Service) Return(ctx context.Context, key string) (*Asset, error) {
	a, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusAssigned {
		return nil, internal.NewValidationError("asset is not assigned", internal.ErrCodeValidationFailed)
	}

	returnDate := s.now().Format(ledgerDateLayout)
	patch := map[string]any{
		"status":     StatusAvailable,
		"assignedTo": nil,
		"returnDate": returnDate,
	}
	if err := s.gateway.Patch(ctx, store.Join(assetsPath, key), patch); err != nil {
		s.logger.Error("asset return failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not return asset", internal.ErrCodeStoreUnavailable, err)
	}

	a.Status = StatusAvailable
	a.AssignedTo = nil
	a.ReturnDate = &returnDate
	s.dropListCache(ctx)

	s.logger.Info("asset returned", "key", key)

	return a, nil
}

// Delete removes an asset; it refuses without confirmation and refuses
// entirely while the asset is assigned.
func (s *Service) Delete(ctx context.Context, key string, confirmed bool) error {
	a, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if a.Status == StatusAssigned {
		return internal.NewValidationError("asset is assigned and must be returned first", internal.ErrCodeValidationFailed)
	}

	if !confirmed {
		return internal.ErrConfirmationRequired.WithDetails(map[string]string{
			"key":          key,
			"name":         a.Name,
			"serialNumber": a.SerialNumber,
		})
	}

	if err := s.gateway.Delete(ctx, store.Join(assetsPath, key)); err != nil {
		s.logger.Error("asset delete failed", "key", key, "error", err)
		return internal.NewExternalError("Could not delete asset", internal.ErrCodeStoreUnavailable, err)
	}

	s.dropListCache(ctx)

	s.logger.Info("asset deleted", "key", key, "operator", internal.OperatorFromContext(ctx))

	return nil
}

func (s *Service) checkEmployee(ctx context.Context, key string) error {
	var record map[string]any
	found, err := s.gateway.Get(ctx, store.Join(usersPath, key), &record)
	if err != nil {
		return internal.NewExternalError("Could not load employee", internal.ErrCodeStoreUnavailable, err)
	}
	if !found {
		return internal.ErrEmployeeNotFound
	}
	return nil
}

func (s *Service) dropListCache(ctx context.Context) {
	if err := s.durable.Delete(ctx, listCacheKey); err != nil {
		s.logger.Warn("asset list cache drop failed", "error", err)
	}
}
