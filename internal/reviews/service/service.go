package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"projecthub/internal/events"
	reviewmetrics "projecthub/internal/reviews/metrics"
	"projecthub/internal/reviews/models"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/sentinel"
)

// Store persists reviews and per-project aggregates. The aggregate adjustment
// commits in the same critical section as the review mutation.
type Store interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, id domain.ProjectID, reviewer domain.Principal, mutate func(*models.Review) error) (*models.Review, error)
	Delete(ctx context.Context, id domain.ProjectID, reviewer domain.Principal) error
	Find(ctx context.Context, id domain.ProjectID, reviewer domain.Principal) (*models.Review, error)
	Aggregate(ctx context.Context, id domain.ProjectID) (models.Aggregate, error)
}

// Directory is the slice of the project directory the ledger depends on. The
// owner lookup doubles as the existence check and feeds the self-review gate.
type Directory interface {
	Owner(ctx context.Context, id domain.ProjectID) (domain.Principal, error)
}

// Service owns the review ledger and its rating aggregates.
type Service struct {
	store           Store
	directory       Directory
	allowSelfReview bool
	logger          *slog.Logger
	publisher       events.Publisher
	metrics         *reviewmetrics.Metrics
	clock           func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *reviewmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithSelfReviewAllowed lets project owners review their own projects.
// Disabled by default.
func WithSelfReviewAllowed(allowed bool) Option {
	return func(s *Service) { s.allowSelfReview = allowed }
}

// New constructs a Service.
func New(store Store, directory Directory, opts ...Option) *Service {
	s := &Service{store: store, directory: directory, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add submits a first review for a project by the caller. A repeat submission
// is a conflict; callers update instead.
func (s *Service) Add(ctx context.Context, caller domain.Principal, id domain.ProjectID, rating int, comment domain.CID) (*models.Review, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	owner, err := s.directory.Owner(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner == caller && !s.allowSelfReview {
		return nil, dErrors.New(dErrors.CodeForbidden, "project owners cannot review their own project")
	}
	review, err := models.NewReview(id, caller, rating, comment, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, review); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "already reviewed")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store review")
	}
	s.emit(ctx, events.Event{Topic: events.TopicReviewSubmitted, Actor: caller, ProjectID: id,
		Detail: map[string]string{"rating": strconv.Itoa(rating)}})
	if s.metrics != nil {
		s.metrics.ReviewsSubmitted.Inc()
	}
	return review, nil
}

// Update replaces the caller's review. CreatedAt survives the update; the
// aggregate swaps the rating with its count unchanged.
func (s *Service) Update(ctx context.Context, caller domain.Principal, id domain.ProjectID, rating int, comment domain.CID) (*models.Review, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := models.ValidateRating(rating); err != nil {
		return nil, err
	}
	if len(comment) > models.MaxCommentCIDLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "comment cid exceeds %d characters", models.MaxCommentCIDLength)
	}
	now := s.clock()
	review, err := s.store.Update(ctx, id, caller, func(r *models.Review) error {
		r.Rating = rating
		r.CommentCID = comment
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update review")
	}
	s.emit(ctx, events.Event{Topic: events.TopicReviewUpdated, Actor: caller, ProjectID: id,
		Detail: map[string]string{"rating": strconv.Itoa(rating)}})
	if s.metrics != nil {
		s.metrics.ReviewsUpdated.Inc()
	}
	return review, nil
}

// Get returns one reviewer's review of a project. Public.
func (s *Service) Get(ctx context.Context, id domain.ProjectID, reviewer domain.Principal) (*models.Review, error) {
	review, err := s.store.Find(ctx, id, reviewer)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load review")
	}
	return review, nil
}

// Average returns the mean rating in hundredths of a star. Zero means nobody
// has reviewed the project yet.
func (s *Service) Average(ctx context.Context, id domain.ProjectID) (int64, uint64, error) {
	agg, err := s.store.Aggregate(ctx, id)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rating aggregate")
	}
	return agg.Average(), agg.Count, nil
}

// Remove deletes the caller's review and folds it out of the aggregate.
func (s *Service) Remove(ctx context.Context, caller domain.Principal, id domain.ProjectID) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := s.store.Delete(ctx, id, caller); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "review not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete review")
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
