package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/content/domain"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/fingerprint"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
	revdomain "github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/domain"
)

// Store is the content store.
type Store interface {
	CreateProject(ctx context.Context, projectID, name string) (*domain.Project, error)
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	Save(ctx context.Context, projectID string, items []domain.ContentItem, meta domain.Metadata) (*domain.Project, error)
}

// Publisher triggers revalidation of a public page.
type Publisher interface {
	Revalidate(ctx context.Context, id auth.Identity, req revdomain.Request) (revdomain.Outcome, error)
}

// ContentService handles content editing and publishing.
type ContentService struct {
	store      Store
	publisher  Publisher
	publicPath func(projectID string) string
}

// NewContentService creates a new content service
func NewContentService(store Store, publisher Publisher, publicPath func(string) string) *ContentService {
	return &ContentService{
		store:      store,
		publisher:  publisher,
		publicPath: publicPath,
	}
}

// SaveResult reports the save and the publish independently: a saved edit
// with a failed publish has Project set and PublishErr non-nil.
type SaveResult struct {
	Project     *domain.Project
	Fingerprint string
	Publish     revdomain.Outcome
	PublishErr  error
}

// SaveForm merges the submitted form state into the project and then asks
// for its public page to be revalidated. The fingerprint is computed from
// the merged stored content; clientFingerprint is advisory only.
func (s *ContentService) SaveForm(ctx context.Context, id auth.Identity, projectID string, form domain.Form, clientFingerprint string) (*SaveResult, error) {
	log := logging.FromContext(ctx)

	if !id.CanEditProject(projectID) {
		return nil, domain.ErrUnauthorized
	}
	if !domain.ValidProjectID(projectID) {
		return nil, domain.ErrInvalidID
	}

	items, meta, err := form.Split()
	if err != nil {
		return nil, err
	}

	p, err := s.store.Save(ctx, projectID, items, meta)
	if err != nil {
		return nil, err
	}

	fp := fingerprint.FromItems(p.Content).String()
	if clientFingerprint = strings.TrimSpace(clientFingerprint); clientFingerprint != "" && clientFingerprint != fp {
		log.Debug("client fingerprint differs from stored content",
			slog.String("project_id", projectID),
			slog.String("client", clientFingerprint),
			slog.String("stored", fp))
	}

	res := &SaveResult{Project: p, Fingerprint: fp}
	if s.publisher == nil {
		return res, nil
	}

	res.Publish, res.PublishErr = s.publisher.Revalidate(ctx, id, revdomain.Request{
		Path:        s.publicPath(projectID),
		ProjectID:   projectID,
		Fingerprint: fp,
	})
	if res.PublishErr != nil {
		log.Warn("content saved but publish failed",
			slog.String("project_id", projectID),
			slog.Any("error", res.PublishErr))
	}
	return res, nil
}

// GetProject returns a project with its content.
func (s *ContentService) GetProject(ctx context.Context, id auth.Identity, projectID string) (*domain.Project, error) {
	if !id.CanEditProject(projectID) {
		return nil, domain.ErrUnauthorized
	}
	return s.store.GetProject(ctx, projectID)
}

// ListProjects returns every project for admins and the caller's own
// project otherwise.
func (s *ContentService) ListProjects(ctx context.Context, id auth.Identity) ([]domain.Project, error) {
	if !id.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	if id.IsAdmin() {
		return s.store.ListProjects(ctx)
	}
	if id.ProjectID == "" {
		return []domain.Project{}, nil
	}

	p, err := s.store.GetProject(ctx, id.ProjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Project{}, nil
		}
		return nil, err
	}
	p.Content = nil
	return []domain.Project{*p}, nil
}

// CreateProject registers a new empty project. Admin only.
func (s *ContentService) CreateProject(ctx context.Context, id auth.Identity, projectID, name string) (*domain.Project, error) {
	if !id.Authenticated() || !id.IsAdmin() {
		return nil, domain.ErrUnauthorized
	}
	return s.store.CreateProject(ctx, strings.TrimSpace(projectID), strings.TrimSpace(name))
}
