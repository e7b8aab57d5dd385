package department

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/store"
)

// EmployeeListings is satisfied by the employee service; cascades that touch
// employee records invalidate its cached pages through it.
type EmployeeListings interface {
	InvalidateListing(ctx context.Context)
}

// Summary is one row of the department list with its derived head count.
type Summary struct {
	Department
	MemberCount int `json:"memberCount"`
}

// Service owns departments and the membership edges stored on employee
// records.
type Service struct {
	gateway   store.Gateway
	durable   cache.Cache
	employees EmployeeListings
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(gateway store.Gateway, durable cache.Cache, employees EmployeeListings, logger *slog.Logger) *Service {
	return &Service{
		gateway:   gateway,
		durable:   durable,
		employees: employees,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns every department with its member count. The result is cached
// durably until a mutation drops it; force bypasses the cache.
func (s *Service) List(ctx context.Context, force bool) ([]Summary, error) {
	if !force {
		var cached []Summary
		if _, ok, err := cache.GetJSON(ctx, s.durable, listCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	entries, err := s.gateway.GetRange(ctx, departmentsPath, store.Query{OrderBy: store.OrderByKey})
	if err != nil {
		s.logger.Error("department listing failed", "error", err)
		return nil, internal.NewExternalError("Could not load departments", internal.ErrCodeStoreUnavailable, err)
	}

	counts, err := s.memberCounts(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(entries))
	for _, e := range entries {
		var dept Department
		if err := json.Unmarshal(e.Value, &dept); err != nil {
			s.logger.Warn("skipping malformed department record", "key", e.Key)
			continue
		}
		dept.Key = e.Key
		summaries = append(summaries, Summary{Department: dept, MemberCount: counts[e.Key]})
	}

	if err := cache.SetJSON(ctx, s.durable, listCacheKey, summaries); err != nil {
		s.logger.Warn("department list cache write failed", "error", err)
	}

	return summaries, nil
}

// Get returns one department with its derived membership.
func (s *Service) Get(ctx context.Context, key string) (*Detail, error) {
	dept, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}

	members, err := s.members(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Detail{Department: *dept, Members: members}, nil
}

func (s *Service) Create(ctx context.Context, dto CreateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}
	if err := s.checkHead(ctx, dto.HeadKey); err != nil {
		return nil, err
	}

	status := dto.Status
	if status == "" {
		status = StatusActive
	}

	dept := Department{
		Name:        dto.Name,
		Description: dto.Description,
		Status:      status,
		HeadKey:     dto.HeadKey,
		CreatedAt:   s.now().Format(time.RFC3339),
	}

	key, err := s.gateway.Push(ctx, departmentsPath, dept)
	if err != nil {
		s.logger.Error("department creation failed", "error", err)
		return nil, internal.NewExternalError("Could not create department", internal.ErrCodeStoreUnavailable, err)
	}

	dept.Key = key
	s.dropListCache(ctx)

	s.logger.Info("department created", "key", key, "name", dept.Name)

	return &dept, nil
}

func (s *Service) Update(ctx context.Context, key string, dto UpdateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	dept, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.checkHead(ctx, dto.HeadKey); err != nil {
		return nil, err
	}

	patch := map[string]any{
		"name":        dto.Name,
		"description": dto.Description,
		// nil clears the head reference in the store
		"headKey": dto.HeadKey,
	}
	if dto.Status != "" {
		patch["status"] = dto.Status
	}
	if err := s.gateway.Patch(ctx, store.Join(departmentsPath, key), patch); err != nil {
		s.logger.Error("department update failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not save department", internal.ErrCodeStoreUnavailable, err)
	}

	dept.Name = dto.Name
	dept.Description = dto.Description
	if dto.Status != "" {
		dept.Status = dto.Status
	}
	dept.HeadKey = dto.HeadKey
	s.dropListCache(ctx)

	s.logger.Info("department updated", "key", key)

	return dept, nil
}

// Delete removes a department and clears the reference on every member in the
// same multi-path write, so no employee is ever left pointing at a missing
// department. It refuses without explicit confirmation.
func (s *Service) Delete(ctx context.Context, key string, confirmed bool) error {
	dept, err := s.get(ctx, key)
	if err != nil {
		return err
	}

	members, err := s.members(ctx, key)
	if err != nil {
		return err
	}

	if !confirmed {
		return internal.ErrConfirmationRequired.WithDetails(map[string]any{
			"key":         key,
			"name":        dept.Name,
			"memberCount": len(members),
		})
	}

	writes := map[string]any{
		store.Join(departmentsPath, key): nil,
	}
	for _, m := range members {
		writes[store.Join(usersPath, m.Key, "departmentId")] = nil
	}

	if err := s.gateway.Patch(ctx, "", writes); err != nil {
		s.logger.Error("department delete failed", "key", key, "error", err)
		return internal.NewExternalError("Could not delete department", internal.ErrCodeStoreUnavailable, err)
	}

	s.dropListCache(ctx)
	s.employees.InvalidateListing(ctx)

	s.logger.Info("department deleted", "key", key, "cleared_members", len(members), "operator", internal.OperatorFromContext(ctx))

	return nil
}

// AddEmployee sets the department reference on an employee record.
func (s *Service) AddEmployee(ctx context.Context, deptKey, employeeKey string) error {
	if _, err := s.get(ctx, deptKey); err != nil {
		return err
	}
	if err := s.checkEmployee(ctx, employeeKey); err != nil {
		return err
	}

	patch := map[string]any{"departmentId": deptKey}
	if err := s.gateway.Patch(ctx, store.Join(usersPath, employeeKey), patch); err != nil {
		s.logger.Error("department assignment failed", "department", deptKey, "employee", employeeKey, "error", err)
		return internal.NewExternalError("Could not assign employee", internal.ErrCodeStoreUnavailable, err)
	}

	s.dropListCache(ctx)
	s.employees.InvalidateListing(ctx)

	return nil
}

// RemoveEmployee clears the department reference on an employee record.
func (s *Service) RemoveEmployee(ctx context.Context, deptKey, employeeKey string) error {
	if _, err := s.get(ctx, deptKey); err != nil {
		return err
	}
	if err := s.checkEmployee(ctx, employeeKey); err != nil {
		return err
	}

	patch := map[string]any{"departmentId": nil}
	if err := s.gateway.Patch(ctx, store.Join(usersPath, employeeKey), patch); err != nil {
		s.logger.Error("department removal failed", "department", deptKey, "employee", employeeKey, "error", err)
		return internal.NewExternalError("Could not remove employee", internal.ErrCodeStoreUnavailable, err)
	}

	s.dropListCache(ctx)
	s.employees.InvalidateListing(ctx)

	return nil
}

func (s *Service) get(ctx context.Context, key string) (*Department, error) {
	var dept Department
	found, err := s.gateway.Get(ctx, store.Join(departmentsPath, key), &dept)
	if err != nil {
		s.logger.Error("department read failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not load department", internal.ErrCodeStoreUnavailable, err)
	}
	if !found {
		return nil, internal.ErrDepartmentNotFound
	}
	dept.Key = key
	return &dept, nil
}

func (s *Service) members(ctx context.Context, key string) ([]Member, error) {
	entries, err := s.gateway.GetRange(ctx, usersPath, store.Query{
		OrderBy: "departmentId",
		EqualTo: &key,
	})
	if err != nil {
		s.logger.Error("membership lookup failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not load department members", internal.ErrCodeStoreUnavailable, err)
	}

	members := make([]Member, 0, len(entries))
	for _, e := range entries {
		var m Member
		if err := json.Unmarshal(e.Value, &m); err != nil {
			s.logger.Warn("skipping malformed employee record", "key", e.Key)
			continue
		}
		m.Key = e.Key
		members = append(members, m)
	}
	return members, nil
}

func (s *Service) memberCounts(ctx context.Context) (map[string]int, error) {
	entries, err := s.gateway.GetRange(ctx, usersPath, store.Query{OrderBy: store.OrderByKey})
	if err != nil {
		s.logger.Error("member count scan failed", "error", err)
		return nil, internal.NewExternalError("Could not load department members", internal.ErrCodeStoreUnavailable, err)
	}

	counts := make(map[string]int)
	for _, e := range entries {
		var record struct {
			DepartmentID string `json:"departmentId"`
		}
		if err := json.Unmarshal(e.Value, &record); err != nil {
			continue
		}
		if record.DepartmentID != "" {
			counts[record.DepartmentID]++
		}
	}
	return counts, nil
}

func (s *Service) checkHead(ctx context.Context, headKey *string) error {
	if headKey == nil {
		return nil
	}
	return s.checkEmployee(ctx, *headKey)
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
		s.logger.Warn("department list cache drop failed", "error", err)
	}
}
