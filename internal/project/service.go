package project

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/blob"
	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/store"
)

// Service owns the portfolio: the session-cached ordered list, CRUD, image
// uploads and the reorder operation that keeps display positions dense.
type Service struct {
	gateway store.Gateway
	session cache.Cache
	blobs   blob.Store
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(gateway store.Gateway, session cache.Cache, blobs blob.Store, logger *slog.Logger) *Service {
	return &Service{
		gateway: gateway,
		session: session,
		blobs:   blobs,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns every project in display order, served from the session cache
// when present.
func (s *Service) List(ctx context.Context, force bool) ([]Project, error) {
	if !force {
		var cached []Project
		if _, ok, err := cache.GetJSON(ctx, s.session, listCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	return s.fetchOrdered(ctx)
}

func (s *Service) Get(ctx context.Context, key string) (*Project, error) {
	var p Project
	found, err := s.gateway.Get(ctx, store.Join(projectsPath, key), &p)
	if err != nil {
		s.logger.Error("project read failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not load project", internal.ErrCodeStoreUnavailable, err)
	}
	if !found {
		return nil, internal.ErrProjectNotFound
	}
	p.Key = key
	return &p, nil
}

// Create appends a new project at the end of the display order.
func (s *Service) Create(ctx context.Context, dto CreateProjectDTO) (*Project, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	current, err := s.fetchOrdered(ctx)
	if err != nil {
		return nil, err
	}

	p := Project{
		Title:        dto.Title,
		Category:     dto.Category,
		ClientName:   dto.ClientName,
		Description:  dto.Description,
		Technologies: dto.Technologies,
		LiveURL:      dto.LiveURL,
		RepoURL:      dto.RepoURL,
		Order:        len(current),
		CreatedAt:    s.now().Format(time.RFC3339),
	}

	key, err := s.gateway.Push(ctx, projectsPath, p)
	if err != nil {
		s.logger.Error("project creation failed", "error", err)
		return nil, internal.NewExternalError("Could not create project", internal.ErrCodeStoreUnavailable, err)
	}

	p.Key = key
	s.dropListCache(ctx)

	s.logger.Info("project created", "key", key, "title", p.Title)

	return &p, nil
}

func (s *Service) Update(ctx context.Context, key string, dto UpdateProjectDTO) (*Project, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{
		"title":        dto.Title,
		"category":     dto.Category,
		"clientName":   dto.ClientName,
		"description":  dto.Description,
		"technologies": dto.Technologies,
		"liveUrl":      dto.LiveURL,
		"repoUrl":      dto.RepoURL,
	}
	if err := s.gateway.Patch(ctx, store.Join(projectsPath, key), patch); err != nil {
		s.logger.Error("project update failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not save project", internal.ErrCodeStoreUnavailable, err)
	}

	p.Title = dto.Title
	p.Category = dto.Category
	p.ClientName = dto.ClientName
	p.Description = dto.Description
	p.Technologies = dto.Technologies
	p.LiveURL = dto.LiveURL
	p.RepoURL = dto.RepoURL
	s.dropListCache(ctx)

	return p, nil
}

// UploadImage stores the picture in the blob store and points the project at
// its public URL.
func (s *Service) UploadImage(ctx context.Context, key string, image io.Reader, contentType string) (*Project, error) {
	p, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	blobKey := "projects/" + uuid.NewString() + extensionFor(contentType)
	url, err := s.blobs.Upload(ctx, blobKey, image, contentType)
	if err != nil {
		s.logger.Error("project image upload failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not upload image", internal.ErrCodeStoreUnavailable, err)
	}

	patch := map[string]any{"imageUrl": url}
	if err := s.gateway.Patch(ctx, store.Join(projectsPath, key), patch); err != nil {
		s.logger.Error("project image link failed", "key", key, "error", err)
		return nil, internal.NewExternalError("Could not save project", internal.ErrCodeStoreUnavailable, err)
	}

	p.ImageURL = url
	s.dropListCache(ctx)

	s.logger.Info("project image updated", "key", key, "blob_key", blobKey)

	return p, nil
}

// Reorder moves one project to the target position and renumbers the whole
// collection so orders stay 0..n-1 with no gaps. The cached list is patched
// first so readers see the new order immediately; the order writes go out as
// one batched patch, then the marker is touched.
func (s *Service) Reorder(ctx context.Context, key string, position int) ([]Project, error) {
	current, err := s.fetchOrdered(ctx)
	if err != nil {
		return nil, err
	}

	movedIdx := -1
	for i, p := range current {
		if p.Key == key {
			movedIdx = i
			break
		}
	}
	if movedIdx == -1 {
		return nil, internal.ErrProjectNotFound
	}

	if position < 0 {
		position = 0
	}
	if position > len(current)-1 {
		position = len(current) - 1
	}

	moved := current[movedIdx]
	rest := make([]Project, 0, len(current)-1)
	rest = append(rest, current[:movedIdx]...)
	rest = append(rest, current[movedIdx+1:]...)

	reordered := make([]Project, 0, len(current))
	reordered = append(reordered, rest[:position]...)
	reordered = append(reordered, moved)
	reordered = append(reordered, rest[position:]...)

	writes := make(map[string]any)
	for i := range reordered {
		if reordered[i].Order != i {
			reordered[i].Order = i
			writes[store.Join(projectsPath, reordered[i].Key, "order")] = i
		}
	}

	if err := cache.SetJSON(ctx, s.session, listCacheKey, reordered); err != nil {
		s.logger.Warn("project list cache patch failed", "error", err)
	}

	if len(writes) > 0 {
		if err := s.gateway.Patch(ctx, "", writes); err != nil {
			s.logger.Error("project reorder failed", "key", key, "error", err)
			s.dropListCache(ctx)
			return nil, internal.NewExternalError("Could not reorder projects", internal.ErrCodeStoreUnavailable, err)
		}
		s.touchMarker(ctx)
	}

	s.logger.Info("projects reordered", "key", key, "position", position, "writes", len(writes))

	return reordered, nil
}

// Delete removes a project and renumbers the remainder so the order sequence
// stays dense.
func (s *Service) Delete(ctx context.Context, key string, confirmed bool) error {
	p, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if !confirmed {
		return internal.ErrConfirmationRequired.WithDetails(map[string]string{
			"key":   key,
			"title": p.Title,
		})
	}

	current, err := s.fetchOrdered(ctx)
	if err != nil {
		return err
	}

	writes := map[string]any{
		store.Join(projectsPath, key): nil,
	}
	next := 0
	for _, other := range current {
		if other.Key == key {
			continue
		}
		if other.Order != next {
			writes[store.Join(projectsPath, other.Key, "order")] = next
		}
		next++
	}

	if err := s.gateway.Patch(ctx, "", writes); err != nil {
		s.logger.Error("project delete failed", "key", key, "error", err)
		return internal.NewExternalError("Could not delete project", internal.ErrCodeStoreUnavailable, err)
	}

	s.dropListCache(ctx)
	s.touchMarker(ctx)

	s.logger.Info("project deleted", "key", key, "operator", internal.OperatorFromContext(ctx))

	return nil
}

func (s *Service) fetchOrdered(ctx context.Context) ([]Project, error) {
	entries, err := s.gateway.GetRange(ctx, projectsPath, store.Query{OrderBy: store.OrderByKey})
	if err != nil {
		s.logger.Error("project listing failed", "error", err)
		return nil, internal.NewExternalError("Could not load projects", internal.ErrCodeStoreUnavailable, err)
	}

	projects := make([]Project, 0, len(entries))
	for _, e := range entries {
		var p Project
		if err := json.Unmarshal(e.Value, &p); err != nil {
			s.logger.Warn("skipping malformed project record", "key", e.Key)
			continue
		}
		p.Key = e.Key
		projects = append(projects, p)
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Order != projects[j].Order {
			return projects[i].Order < projects[j].Order
		}
		return projects[i].Key < projects[j].Key
	})

	if err := cache.SetJSON(ctx, s.session, listCacheKey, projects); err != nil {
		s.logger.Warn("project list cache write failed", "error", err)
	}

	return projects, nil
}

// touchMarker records when display order last changed. Written after the
// order patch, never together with it.
func (s *Service) touchMarker(ctx context.Context) {
	if err := s.gateway.Set(ctx, markerPath, s.now().Format(time.RFC3339)); err != nil {
		s.logger.Warn("project reorder marker write failed", "error", err)
	}
}

func (s *Service) dropListCache(ctx context.Context) {
	if err := s.session.Delete(ctx, listCacheKey); err != nil {
		s.logger.Warn("project list cache drop failed", "error", err)
	}
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
