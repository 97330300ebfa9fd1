package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"projecthub/internal/events"
	verifmetrics "projecthub/internal/verification/metrics"
	"projecthub/internal/verification/models"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/sentinel"
)

// Store persists verification records. Put admits the new record against the
// existing one inside the commit critical section; Execute does the same for
// decision transitions.
type Store interface {
	Put(ctx context.Context, record *models.Record, admit func(existing *models.Record) error) error
	Execute(ctx context.Context, id domain.ProjectID, mutate func(*models.Record) error) (*models.Record, error)
	Restore(ctx context.Context, id domain.ProjectID, prior *models.Record) error
	Find(ctx context.Context, id domain.ProjectID) (*models.Record, error)
	ListPending(ctx context.Context, startID domain.ProjectID, limit int) ([]*models.Record, error)
}

// Guard authorizes privileged calls against the admin registry.
type Guard interface {
	RequireAdmin(ctx context.Context, principal domain.Principal) error
}

// Directory is the slice of the project directory the workflow depends on:
// ownership lookups and the denormalized status mirror.
type Directory interface {
	Owner(ctx context.Context, id domain.ProjectID) (domain.Principal, error)
	SyncVerificationStatus(ctx context.Context, id domain.ProjectID, status domain.VerificationStatus) error
}

// FeePaidChecker reports whether the verification fee was collected.
type FeePaidChecker interface {
	IsFeePaid(ctx context.Context, id domain.ProjectID) (bool, error)
}

// List paging bounds, matching the directory's.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Service owns the verification workflow.
type Service struct {
	store     Store
	guard     Guard
	directory Directory
	fees      FeePaidChecker
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *verifmetrics.Metrics
	clock     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *verifmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// New constructs a Service.
func New(store Store, guard Guard, directory Directory, fees FeePaidChecker, opts ...Option) *Service {
	s := &Service{
		store:     store,
		guard:     guard,
		directory: directory,
		fees:      fees,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request files a verification request for a project the caller owns. The fee
// must already be collected. A rejected project may request again; any other
// existing record blocks the request.
func (s *Service) Request(ctx context.Context, caller domain.Principal, id domain.ProjectID, evidence domain.CID) (*models.Record, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	owner, err := s.directory.Owner(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner != caller {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the project owner may request verification")
	}
	paid, err := s.fees.IsFeePaid(ctx, id)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, dErrors.New(dErrors.CodeResourceFailed, "verification fee not paid")
	}
	record, err := models.NewRequest(id, caller, evidence, s.clock())
	if err != nil {
		return nil, err
	}
	var prior *models.Record
	err = s.store.Put(ctx, record, func(existing *models.Record) error {
		if existing != nil && existing.Status != domain.StatusRejected {
			return dErrors.New(dErrors.CodeConflict, "verification already processed")
		}
		prior = existing
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to store verification request")
	}
	if err := s.directory.SyncVerificationStatus(ctx, id, domain.StatusPending); err != nil {
		s.restore(ctx, id, prior)
		return nil, err
	}
	s.emit(ctx, events.Event{Topic: events.TopicVerificationRequested, Actor: caller, ProjectID: id,
		Detail: map[string]string{"evidence_cid": evidence.String()}})
	if s.metrics != nil {
		s.metrics.Requested.Inc()
	}
	return record, nil
}

// Approve marks a pending request verified. Admin only.
func (s *Service) Approve(ctx context.Context, caller domain.Principal, id domain.ProjectID, note string) (*models.Record, error) {
	return s.decide(ctx, caller, id, domain.StatusVerified, note)
}

// Reject marks a pending request rejected. Admin only. The project may file a
// new request afterwards.
func (s *Service) Reject(ctx context.Context, caller domain.Principal, id domain.ProjectID, note string) (*models.Record, error) {
	return s.decide(ctx, caller, id, domain.StatusRejected, note)
}

func (s *Service) decide(ctx context.Context, caller domain.Principal, id domain.ProjectID, target domain.VerificationStatus, note string) (*models.Record, error) {
	if err := s.guard.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	now := s.clock()
	var prior models.Record
	record, err := s.store.Execute(ctx, id, func(r *models.Record) error {
		prior = *r
		return r.Decide(target, caller, note, now)
	})
	if err != nil {
		return nil, translate(err, "failed to store verification decision")
	}
	if err := s.directory.SyncVerificationStatus(ctx, id, target); err != nil {
		s.restore(ctx, id, &prior)
		return nil, err
	}
	topic := events.TopicVerificationApproved
	if target == domain.StatusRejected {
		topic = events.TopicVerificationRejected
	}
	s.emit(ctx, events.Event{Topic: topic, Actor: caller, ProjectID: id})
	if s.metrics != nil {
		s.metrics.Decisions.WithLabelValues(target.String()).Inc()
	}
	return record, nil
}

// Get returns the verification record for a project. Public.
func (s *Service) Get(ctx context.Context, id domain.ProjectID) (*models.Record, error) {
	record, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load verification record")
	}
	return record, nil
}

// ListPending returns the pending queue in ascending project id order. Admin
// only; the queue names principals who have not published anything yet.
func (s *Service) ListPending(ctx context.Context, caller domain.Principal, startID domain.ProjectID, limit int) ([]*models.Record, error) {
	if err := s.guard.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	records, err := s.store.ListPending(ctx, startID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending requests")
	}
	return records, nil
}

// restore undoes a committed record write whose directory sync failed, so the
// record and the mirror never disagree across the two stores.
func (s *Service) restore(ctx context.Context, id domain.ProjectID, prior *models.Record) {
	if err := s.store.Restore(ctx, id, prior); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to restore verification record after sync failure",
			"project_id", id, "error", err)
	}
}

// translate maps store sentinels and passes coded errors through unchanged.
func translate(err error, internalMsg string) error {
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "no verification request for project")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "topic", event.Topic, "error", err)
	}
}
