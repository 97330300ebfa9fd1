// Package ledger provides an in-process account ledger used as the transfer
// backend when no external payment rail is configured.
package ledger

import (
	"context"
	"sync"

	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

type account struct {
	principal domain.Principal
	asset     domain.Asset
}

// Ledger tracks per-principal, per-asset balances. Transfers are all-or-nothing.
type Ledger struct {
	mu       sync.Mutex
	balances map[account]int64
}

func New() *Ledger {
	return &Ledger{balances: make(map[account]int64)}
}

// Deposit credits an account out of band. Used to fund payers in tests and
// single-node deployments.
func (l *Ledger) Deposit(principal domain.Principal, asset domain.Asset, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account{principal, asset}] += amount
}

func (l *Ledger) BalanceOf(principal domain.Principal, asset domain.Asset) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account{principal, asset}]
}

// Transfer moves amount from one principal to another, failing with
// sentinel.ErrInsufficient when the source lacks funds.
func (l *Ledger) Transfer(ctx context.Context, from, to domain.Principal, asset domain.Asset, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := account{from, asset}
	if l.balances[src] < amount {
		return sentinel.ErrInsufficient
	}
	l.balances[src] -= amount
	l.balances[account{to, asset}] += amount
	return nil
}
