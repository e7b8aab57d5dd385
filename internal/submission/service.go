package submission

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/store"
)

// Service reads and resolves the two public form inboxes. Submissions are
// created by the public site, never here; operators review, resolve and
// delete them.
type Service struct {
	gateway store.Gateway
	logger  *slog.Logger
}

func NewService(gateway store.Gateway, logger *slog.Logger) *Service {
	return &Service{gateway: gateway, logger: logger}
}

// ListCareer returns career submissions newest first. Push keys sort
// chronologically, so reversing key order gives submission order.
func (s *Service) ListCareer(ctx context.Context) ([]CareerSubmission, error) {
	entries, err := s.gateway.GetRange(ctx, careerPath, store.Query{OrderBy: store.OrderByKey})
	if err != nil {
		s.logger.Error("career submission listing failed", "error", err)
		return nil, internal.NewExternalError("Could not load career submissions", internal.ErrCodeStoreUnavailable, err)
	}

	submissions := make([]CareerSubmission, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		var sub CareerSubmission
		if err := json.Unmarshal(entries[i].Value, &sub); err != nil {
			s.logger.Warn("skipping malformed career submission", "key", entries[i].Key)
			continue
		}
		sub.Key = entries[i].Key
		if sub.Status == "" {
			sub.Status = StatusPending
		}
		submissions = append(submissions, sub)
	}
	return submissions, nil
}

// ListContact returns contact submissions newest first.
func (s *Service) ListContact(ctx context.Context) ([]ContactSubmission, error) {
	entries, err := s.gateway.GetRange(ctx, contactPath, store.Query{OrderBy: store.OrderByKey})
	if err != nil {
		s.logger.Error("contact submission listing failed", "error", err)
		return nil, internal.NewExternalError("Could not load contact submissions", internal.ErrCodeStoreUnavailable, err)
	}

	submissions := make([]ContactSubmission, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		var sub ContactSubmission
		if err := json.Unmarshal(entries[i].Value, &sub); err != nil {
			s.logger.Warn("skipping malformed contact submission", "key", entries[i].Key)
			continue
		}
		sub.Key = entries[i].Key
		submissions = append(submissions, sub)
	}
	return submissions, nil
}

func (s *Service) GetCareer(ctx context.Context, key string) (*CareerSubmission, error) {
	var sub CareerSubmission
	found, err := s.gateway.Get(ctx, store.Join(careerPath, key), &sub)
	if err != nil {
		s.logger.Error("career submission read failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not load career submission", internal.ErrCodeStoreUnavailable, err)
	}
	if !found {
		return nil, internal.ErrSubmissionNotFound
	}
	sub.Key = key
	if sub.Status == "" {
		sub.Status = StatusPending
	}
	return &sub, nil
}

// ResolveCareer moves an application to Accepted or Rejected.
func (s *Service) ResolveCareer(ctx context.Context, key string, status CareerStatus) (*CareerSubmission, error) {
	if !status.Valid() {
		return nil, internal.NewValidationError("status must be Pending, Accepted or Rejected", internal.ErrCodeValidationFailed)
	}

	sub, err := s.GetCareer(ctx, key)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{"status": status}
	if err := s.gateway.Patch(ctx, store.Join(careerPath, key), patch); err != nil {
		s.logger.Error("career submission resolution failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not save career submission", internal.ErrCodeStoreUnavailable, err)
	}

	sub.Status = status

	s.logger.Info("career submission resolved", "key", key, "status", status)

	return sub, nil
}

// DeleteCareer removes an application; confirmation is required and the
// refusal carries the applicant's identifying fields.
func (s *Service) DeleteCareer(ctx context.Context, key string, confirmed bool) error {
	sub, err := s.GetCareer(ctx, key)
	if err != nil {
		return err
	}

	if !confirmed {
		return internal.ErrConfirmationRequired.WithDetails(map[string]string{
			"key":      key,
			"name":     sub.Name,
			"email":    sub.Email,
			"position": sub.Position,
		})
	}

	if err := s.gateway.Delete(ctx, store.Join(careerPath, key)); err != nil {
		s.logger.Error("career submission delete failed", "key", key, "error", err)
		return internal.NewExternalError("Could not delete career submission", internal.ErrCodeStoreUnavailable, err)
	}

	s.logger.Info("career submission deleted", "key", key, "operator", internal.OperatorFromContext(ctx))

	return nil
}

// DeleteContact removes a contact message; confirmation is required.
func (s *Service) DeleteContact(ctx context.Context, key string, confirmed bool) error {
	var sub ContactSubmission
	found, err := s.gateway.Get(ctx, store.Join(contactPath, key), &sub)
	if err != nil {
		s.logger.Error("contact submission read failed", "key", key, "error", err)
		return internal.NewExternalError("Could not load contact submission", internal.ErrCodeStoreUnavailable, err)
	}
	if !found {
		return internal.ErrSubmissionNotFound
	}

	if !confirmed {
		return internal.ErrConfirmationRequired.WithDetails(map[string]string{
			"key":     key,
			"name":    sub.Name,
			"email":   sub.Email,
			"subject": sub.Subject,
		})
	}

	if err := s.gateway.Delete(ctx, store.Join(contactPath, key)); err != nil {
		s.logger.Error("contact submission delete failed", "key", key, "error", err)
		return internal.NewExternalError("Could not delete contact submission", internal.ErrCodeStoreUnavailable, err)
	}

	s.logger.Info("contact submission deleted", "key", key, "operator", internal.OperatorFromContext(ctx))

	return nil
}
