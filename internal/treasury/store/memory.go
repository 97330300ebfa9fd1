package store

import (
	"context"
	"sync"

	"projecthub/internal/treasury/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

// Memory is an in-memory treasury store for tests and single-node deployments.
type Memory struct {
	mu       sync.RWMutex
	config   *models.FeeConfig
	treasury domain.Principal
	balances map[domain.Asset]int64
	payments map[domain.ProjectID]*models.Payment
}

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[domain.Asset]int64),
		payments: make(map[domain.ProjectID]*models.Payment),
	}
}

func (m *Memory) SetFeeConfig(ctx context.Context, config *models.FeeConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *config
	m.config = &cp
	m.treasury = config.Treasury
	return nil
}

func (m *Memory) GetFeeConfig(ctx context.Context) (*models.FeeConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *m.config
	return &cp, nil
}

func (m *Memory) SetTreasury(ctx context.Context, treasury domain.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.treasury = treasury
	if m.config != nil {
		m.config.Treasury = treasury
	}
	return nil
}

func (m *Memory) GetTreasury(ctx context.Context) (domain.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.treasury.IsZero() {
		return "", sentinel.ErrNotFound
	}
	return m.treasury, nil
}

func (m *Memory) RecordPayment(ctx context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *payment
	m.payments[payment.ProjectID] = &cp
	m.balances[payment.Asset] += payment.Amount
	return nil
}

func (m *Memory) IsFeePaid(ctx context.Context, id domain.ProjectID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.payments[id]
	return ok, nil
}

func (m *Memory) Balance(ctx context.Context, asset domain.Asset) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[asset], nil
}

// Withdraw checks the balance, runs transfer, and commits the debit while the
// lock is held. A failed transfer leaves the balance untouched.
func (m *Memory) Withdraw(ctx context.Context, asset domain.Asset, amount int64, transfer func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[asset] < amount {
		return sentinel.ErrInsufficient
	}
	if err := transfer(); err != nil {
		return err
	}
	m.balances[asset] -= amount
	return nil
}
