package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talentdesk/backoffice/internal/store"
)

const (
	clientsPath            = "clients"
	usersPath              = "users"
	registrationsIndexPath = "service_registrations_index"
	employeesIndexPath     = "employees_index"
)

// Report summarizes one migration run.
type Report struct {
	Registrations int `json:"registrations_indexed"`
	Employees     int `json:"employees_indexed"`
}

// Service is the manually triggered denormalization job. It scans the nested
// client registrations and the user collection and rebuilds the flat index
// records the list screens read, cutting their read volume to one range query.
//
// The job is not scheduled and nothing keeps the indexes in sync afterwards;
// operators re-run it after bulk source changes. Re-running is safe because
// every index write is a full-value overwrite under a deterministic key.
type Service struct {
	gateway store.Gateway
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(gateway store.Gateway, logger *slog.Logger) *Service {
	return &Service{gateway: gateway, logger: logger, now: time.Now}
}

// Rebuild reads both source collections in full, synthesizes every index
// record, and commits them in a single batched multi-path patch. Any failure
// aborts the whole run; there is no partial-commit tracking.
func (s *Service) Rebuild(ctx context.Context) (Report, error) {
	writes := make(map[string]any)
	now := s.now()

	var clients map[string]map[string]any
	if _, err := s.gateway.Get(ctx, clientsPath, &clients); err != nil {
		return Report{}, fmt.Errorf("read clients: %w", err)
	}

	registrations := 0
	for clientKey, client := range clients {
		nested, _ := client["serviceRegistrations"].(map[string]any)
		for regKey, raw := range nested {
			reg, _ := raw.(map[string]any)
			record := buildRegistrationIndex(clientKey, regKey, reg, client, now)
			writes[store.Join(registrationsIndexPath, clientKey+"_"+regKey)] = record
			registrations++
		}
	}

	var users map[string]map[string]any
	if _, err := s.gateway.Get(ctx, usersPath, &users); err != nil {
		return Report{}, fmt.Errorf("read users: %w", err)
	}

	employees := 0
	for userKey, user := range users {
		roles := roleSet(user)
		if !hasInternalRole(roles) {
			continue
		}
		writes[store.Join(employeesIndexPath, userKey)] = buildEmployeeIndex(userKey, user, roles)
		employees++
	}

	if len(writes) == 0 {
		s.logger.Info("reindex found nothing to index")
		return Report{}, nil
	}

	if err := s.gateway.Patch(ctx, "", writes); err != nil {
		return Report{}, fmt.Errorf("write index records: %w", err)
	}

	report := Report{Registrations: registrations, Employees: employees}
	s.logger.Info("reindex completed",
		"registrations_indexed", report.Registrations,
		"employees_indexed", report.Employees)

	return report, nil
}
