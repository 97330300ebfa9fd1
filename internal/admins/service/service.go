package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	adminmetrics "projecthub/internal/admins/metrics"
	"projecthub/internal/admins/models"
	"projecthub/internal/events"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/sentinel"
)

// Store persists the admin registry. Implementations keep the membership map
// and the ordered list consistent and re-validate the never-empty invariant
// inside the mutation itself.
type Store interface {
	Initialize(ctx context.Context, seed *models.Admin) error
	Add(ctx context.Context, admin *models.Admin) error
	Remove(ctx context.Context, principal domain.Principal) error
	IsAdmin(ctx context.Context, principal domain.Principal) (bool, error)
	List(ctx context.Context) ([]*models.Admin, error)
	Initialized(ctx context.Context) (bool, error)
}

// Service owns admin registry orchestration. Every privileged operation in
// the rest of the system funnels authorization through RequireAdmin.
type Service struct {
	admins    Store
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *adminmetrics.Metrics
	clock     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *adminmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// New constructs a Service.
func New(admins Store, opts ...Option) *Service {
	s := &Service{admins: admins, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize seeds the registry with its first admin. Callable exactly once.
func (s *Service) Initialize(ctx context.Context, seed domain.Principal) error {
	admin, err := models.NewAdmin(seed, seed, s.clock())
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "seed admin principal is required")
	}
	if err := s.admins.Initialize(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return dErrors.New(dErrors.CodeConflict, "admin registry already initialized")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize admin registry")
	}
	s.emit(ctx, events.Event{Topic: events.TopicAdminAdded, Actor: seed,
		Detail: map[string]string{"admin": seed.String(), "seed": "true"}})
	return nil
}

// Add registers a new admin. Adding a principal that is already an admin is
// an error rather than a silent no-op, so callers learn their picture of the
// registry is stale.
func (s *Service) Add(ctx context.Context, caller, newAdmin domain.Principal) (*models.Admin, error) {
	if err := s.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	admin, err := models.NewAdmin(newAdmin, caller, s.clock())
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "admin principal is required")
	}
	if err := s.admins.Add(ctx, admin); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "principal is already an admin")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add admin")
	}
	s.emit(ctx, events.Event{Topic: events.TopicAdminAdded, Actor: caller,
		Detail: map[string]string{"admin": newAdmin.String()}})
	if s.metrics != nil {
		s.metrics.AdminsAdded.Inc()
	}
	return admin, nil
}

// Remove drops an admin from the registry. Self-removal is permitted as long
// as another admin remains; the store rejects removing the last member.
func (s *Service) Remove(ctx context.Context, caller, target domain.Principal) error {
	if err := s.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if err := s.admins.Remove(ctx, target); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "principal is not an admin")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeConflict, "cannot remove the last admin")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove admin")
		}
	}
	s.emit(ctx, events.Event{Topic: events.TopicAdminRemoved, Actor: caller,
		Detail: map[string]string{"admin": target.String()}})
	if s.metrics != nil {
		s.metrics.AdminsRemoved.Inc()
	}
	return nil
}

// IsAdmin is a pure membership lookup; no authorization required.
func (s *Service) IsAdmin(ctx context.Context, principal domain.Principal) (bool, error) {
	ok, err := s.admins.IsAdmin(ctx, principal)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin membership")
	}
	return ok, nil
}

// List returns the current admins in registration order.
func (s *Service) List(ctx context.Context) ([]*models.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admins")
	}
	return admins, nil
}

// RequireAdmin is the centralized authorization guard. It re-checks
// membership on every call because any number of registry mutations may have
// happened since the caller last looked.
func (s *Service) RequireAdmin(ctx context.Context, principal domain.Principal) error {
	if principal.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "admin role required")
	}
	ok, err := s.admins.IsAdmin(ctx, principal)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin membership")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "admin role required")
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
