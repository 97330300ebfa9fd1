package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"projecthub/internal/events"
	treasurymetrics "projecthub/internal/treasury/metrics"
	"projecthub/internal/treasury/models"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/sentinel"
)

// Store persists the fee configuration, treasury destination, balances, and
// payment records. Withdraw runs its transfer callback inside the same
// critical section as the balance check and debit.
type Store interface {
	SetFeeConfig(ctx context.Context, config *models.FeeConfig) error
	GetFeeConfig(ctx context.Context) (*models.FeeConfig, error)
	SetTreasury(ctx context.Context, treasury domain.Principal) error
	GetTreasury(ctx context.Context) (domain.Principal, error)
	RecordPayment(ctx context.Context, payment *models.Payment) error
	IsFeePaid(ctx context.Context, id domain.ProjectID) (bool, error)
	Balance(ctx context.Context, asset domain.Asset) (int64, error)
	Withdraw(ctx context.Context, asset domain.Asset, amount int64, transfer func() error) error
}

// Guard authorizes privileged calls against the admin registry.
type Guard interface {
	RequireAdmin(ctx context.Context, principal domain.Principal) error
}

// ProjectChecker reports whether a project exists in the directory.
type ProjectChecker interface {
	Exists(ctx context.Context, id domain.ProjectID) (bool, error)
}

// Transferrer moves value between principals. Implementations must be
// all-or-nothing: on error no value has moved.
type Transferrer interface {
	Transfer(ctx context.Context, from, to domain.Principal, asset domain.Asset, amount int64) error
}

// CustodyAccount holds collected fees until an admin withdraws them.
const CustodyAccount = domain.Principal("projecthub.treasury")

// Service owns fee collection and treasury custody.
type Service struct {
	store       Store
	guard       Guard
	projects    ProjectChecker
	transferrer Transferrer
	logger      *slog.Logger
	publisher   events.Publisher
	metrics     *treasurymetrics.Metrics
	clock       func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *treasurymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// New constructs a Service.
func New(store Store, guard Guard, projects ProjectChecker, transferrer Transferrer, opts ...Option) *Service {
	s := &Service{
		store:       store,
		guard:       guard,
		projects:    projects,
		transferrer: transferrer,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFee replaces the fee configuration wholesale. Admin only.
func (s *Service) SetFee(ctx context.Context, caller domain.Principal, asset domain.Asset, verificationFee, registrationFee int64, treasury domain.Principal) (*models.FeeConfig, error) {
	if err := s.guard.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	config, err := models.NewFeeConfig(asset, verificationFee, registrationFee, treasury, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.store.SetFeeConfig(ctx, config); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store fee configuration")
	}
	s.emit(ctx, events.Event{Topic: events.TopicFeeSet, Actor: caller, Detail: map[string]string{
		"verification_fee": strconv.FormatInt(verificationFee, 10),
		"registration_fee": strconv.FormatInt(registrationFee, 10),
		"treasury":         treasury.String(),
	}})
	return config, nil
}

// GetFeeConfig returns the current fee configuration. Public.
func (s *Service) GetFeeConfig(ctx context.Context) (*models.FeeConfig, error) {
	config, err := s.store.GetFeeConfig(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodePreconditionFailed, "fee configuration is not set")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fee configuration")
	}
	return config, nil
}

// SetTreasury updates the withdrawal destination without touching fee amounts.
// Admin only.
func (s *Service) SetTreasury(ctx context.Context, caller, treasury domain.Principal) error {
	if err := s.guard.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if treasury.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "treasury destination is required")
	}
	if err := s.store.SetTreasury(ctx, treasury); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store treasury destination")
	}
	return nil
}

// GetTreasury returns the withdrawal destination. Public.
func (s *Service) GetTreasury(ctx context.Context) (domain.Principal, error) {
	treasury, err := s.store.GetTreasury(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodePreconditionFailed, "treasury destination is not set")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load treasury destination")
	}
	return treasury, nil
}

// PayFee collects the verification fee for a project from the caller. Each
// call debits the full fee, even when the project is already marked paid; the
// payment record is the receipt, not a lock.
func (s *Service) PayFee(ctx context.Context, caller domain.Principal, id domain.ProjectID) (*models.Payment, error) {
	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	exists, err := s.projects.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
	}
	config, err := s.GetFeeConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.transferrer.Transfer(ctx, caller, CustodyAccount, config.Asset, config.VerificationFee); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			return nil, dErrors.New(dErrors.CodeResourceFailed, "payment failed: insufficient funds")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeResourceFailed, "payment failed")
	}
	payment := &models.Payment{
		ProjectID: id,
		Payer:     caller,
		Asset:     config.Asset,
		Amount:    config.VerificationFee,
		PaidAt:    s.clock(),
	}
	if err := s.store.RecordPayment(ctx, payment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record fee payment")
	}
	s.emit(ctx, events.Event{Topic: events.TopicFeePaid, Actor: caller, ProjectID: id,
		Detail: map[string]string{"amount": strconv.FormatInt(payment.Amount, 10)}})
	if s.metrics != nil {
		s.metrics.FeesPaid.Inc()
		s.metrics.FeeAmountPaid.Add(float64(payment.Amount))
	}
	return payment, nil
}

// IsFeePaid reports whether the verification fee has been collected for a
// project. The verification module gates fee-gated requests on this.
func (s *Service) IsFeePaid(ctx context.Context, id domain.ProjectID) (bool, error) {
	paid, err := s.store.IsFeePaid(ctx, id)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check fee payment")
	}
	return paid, nil
}

// Balance returns the custody balance for an asset. Public.
func (s *Service) Balance(ctx context.Context, asset domain.Asset) (int64, error) {
	balance, err := s.store.Balance(ctx, asset)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load treasury balance")
	}
	return balance, nil
}

// Withdraw moves collected fees to a destination, defaulting to the
// configured treasury. The store runs the transfer inside its balance
// critical section, so a failed transfer never debits and a successful
// transfer always does.
func (s *Service) Withdraw(ctx context.Context, caller domain.Principal, asset domain.Asset, amount int64, destination domain.Principal) error {
	if err := s.guard.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "withdrawal amount must be positive")
	}
	treasury := destination
	if treasury.IsZero() {
		var err error
		treasury, err = s.GetTreasury(ctx)
		if err != nil {
			return err
		}
	}
	err := s.store.Withdraw(ctx, asset, amount, func() error {
		return s.transferrer.Transfer(ctx, CustodyAccount, treasury, asset, amount)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			return dErrors.New(dErrors.CodeResourceFailed, "insufficient treasury funds")
		}
		return dErrors.Wrap(err, dErrors.CodeResourceFailed, "treasury withdrawal failed")
	}
	s.emit(ctx, events.Event{Topic: events.TopicTreasuryWithdrawn, Actor: caller, Detail: map[string]string{
		"amount":   strconv.FormatInt(amount, 10),
		"treasury": treasury.String(),
	}})
	if s.metrics != nil {
		s.metrics.Withdrawals.Inc()
		s.metrics.WithdrawnAmount.Add(float64(amount))
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
