package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	directorymetrics "projecthub/internal/directory/metrics"
	"projecthub/internal/directory/models"
	"projecthub/internal/events"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/sentinel"
)

// Store persists project records. Create assigns the monotone id and
// enforces name uniqueness and the per-owner quota atomically; Execute runs
// validate-then-mutate under the lock that commits the write.
type Store interface {
	Create(ctx context.Context, project *models.Project) (domain.ProjectID, error)
	FindByID(ctx context.Context, id domain.ProjectID) (*models.Project, error)
	Execute(ctx context.Context, id domain.ProjectID, validate func(*models.Project) error, mutate func(*models.Project)) (*models.Project, error)
	List(ctx context.Context, startID domain.ProjectID, limit int) ([]*models.Project, error)
}

// DefaultListLimit caps list pages when the caller asks for zero or a
// negative limit; MaxListLimit caps what a caller may ask for.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Service orchestrates the project directory.
type Service struct {
	projects  Store
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *directorymetrics.Metrics
	clock     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *directorymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// New constructs a Service.
func New(projects Store, opts ...Option) *Service {
	s := &Service{projects: projects, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the request and commits a new project with status
// Unverified.
func (s *Service) Register(ctx context.Context, owner domain.Principal, req models.RegisterRequest) (*models.Project, error) {
	project, err := models.NewProject(owner, req, s.clock())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	id, err := s.projects.Create(ctx, project)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyExists):
			return nil, dErrors.New(dErrors.CodeConflict, "project name already taken")
		case errors.Is(err, sentinel.ErrInsufficient):
			return nil, dErrors.Newf(dErrors.CodeResourceFailed, "owner reached the limit of %d projects", models.MaxProjectsPerUser)
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register project")
		}
	}
	project.ID = id

	s.emit(ctx, events.Event{Topic: events.TopicProjectRegistered, Actor: owner, ProjectID: id,
		Detail: map[string]string{"name": project.Name}})
	if s.metrics != nil {
		s.metrics.ProjectsRegistered.Inc()
	}
	return project, nil
}

// Update applies owner-supplied changes. The ownership check runs inside the
// store's critical section so a concurrent transfer of the record (were one
// ever added) could not race past it.
func (s *Service) Update(ctx context.Context, caller domain.Principal, id domain.ProjectID, req models.UpdateRequest) (*models.Project, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	project, err := s.projects.Execute(ctx, id,
		func(p *models.Project) error {
			if p.Owner != caller {
				return dErrors.New(dErrors.CodeForbidden, "only the project owner may update it")
			}
			return nil
		},
		func(p *models.Project) {
			req.Apply(p, now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update project")
	}

	s.emit(ctx, events.Event{Topic: events.TopicProjectUpdated, Actor: caller, ProjectID: id})
	if s.metrics != nil {
		s.metrics.ProjectsUpdated.Inc()
	}
	return project, nil
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id domain.ProjectID) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project")
	}
	return project, nil
}

// List returns up to limit projects with id >= startID in ascending order.
// The scan is sparse: ids assigned but never reused do not terminate it.
func (s *Service) List(ctx context.Context, startID domain.ProjectID, limit int) ([]*models.Project, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	projects, err := s.projects.List(ctx, startID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list projects")
	}
	return projects, nil
}

// Exists reports whether a project id is registered. Used by the review
// ledger as its existence check.
func (s *Service) Exists(ctx context.Context, id domain.ProjectID) (bool, error) {
	_, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project")
	}
	return true, nil
}

// Owner returns the owning principal of a project. Used by the verification
// workflow for its ownership check.
func (s *Service) Owner(ctx context.Context, id domain.ProjectID) (domain.Principal, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project")
	}
	return p.Owner, nil
}

// SyncVerificationStatus writes the denormalized status mirror. Only the
// verification state machine calls this, inside the same logical operation
// that moves the record.
func (s *Service) SyncVerificationStatus(ctx context.Context, id domain.ProjectID, status domain.VerificationStatus) error {
	now := s.clock()
	_, err := s.projects.Execute(ctx, id, nil, func(p *models.Project) {
		p.VerificationStatus = status
		p.UpdatedAt = now
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync verification status")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "topic", event.Topic, "error", err)
	}
}
