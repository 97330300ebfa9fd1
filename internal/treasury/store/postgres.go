package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"projecthub/internal/treasury/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

// Postgres persists the fee configuration, treasury destination, payment
// records, and per-asset balances.
//
// Schema:
//
//	CREATE TABLE fee_config (
//	    id               BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
//	    asset            TEXT NOT NULL DEFAULT '',
//	    verification_fee BIGINT NOT NULL,
//	    registration_fee BIGINT NOT NULL,
//	    treasury         TEXT NOT NULL,
//	    updated_at       TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE treasury_destination (
//	    id        BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
//	    principal TEXT NOT NULL
//	);
//
//	CREATE TABLE treasury_balances (
//	    asset   TEXT PRIMARY KEY,
//	    balance BIGINT NOT NULL CHECK (balance >= 0)
//	);
//
//	CREATE TABLE fee_payments (
//	    project_id BIGINT PRIMARY KEY,
//	    payer      TEXT NOT NULL,
//	    asset      TEXT NOT NULL DEFAULT '',
//	    amount     BIGINT NOT NULL,
//	    paid_at    TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) SetFeeConfig(ctx context.Context, config *models.FeeConfig) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO fee_config (id, asset, verification_fee, registration_fee, treasury, updated_at)
			 VALUES (TRUE, $1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
			     asset = EXCLUDED.asset,
			     verification_fee = EXCLUDED.verification_fee,
			     registration_fee = EXCLUDED.registration_fee,
			     treasury = EXCLUDED.treasury,
			     updated_at = EXCLUDED.updated_at`,
			string(config.Asset), config.VerificationFee, config.RegistrationFee,
			config.Treasury.String(), config.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert fee config: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO treasury_destination (id, principal) VALUES (TRUE, $1)
			 ON CONFLICT (id) DO UPDATE SET principal = EXCLUDED.principal`,
			config.Treasury.String())
		if err != nil {
			return fmt.Errorf("upsert treasury destination: %w", err)
		}
		return nil
	})
}

func (s *Postgres) GetFeeConfig(ctx context.Context) (*models.FeeConfig, error) {
	var c models.FeeConfig
	var asset, treasury string
	err := s.db.QueryRowContext(ctx,
		`SELECT asset, verification_fee, registration_fee, treasury, updated_at FROM fee_config`).
		Scan(&asset, &c.VerificationFee, &c.RegistrationFee, &treasury, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select fee config: %w", err)
	}
	c.Asset = domain.Asset(asset)
	c.Treasury = domain.Principal(treasury)
	return &c, nil
}

func (s *Postgres) SetTreasury(ctx context.Context, treasury domain.Principal) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO treasury_destination (id, principal) VALUES (TRUE, $1)
			 ON CONFLICT (id) DO UPDATE SET principal = EXCLUDED.principal`,
			treasury.String())
		if err != nil {
			return fmt.Errorf("upsert treasury destination: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE fee_config SET treasury = $1`, treasury.String())
		if err != nil {
			return fmt.Errorf("update fee config treasury: %w", err)
		}
		return nil
	})
}

func (s *Postgres) GetTreasury(ctx context.Context) (domain.Principal, error) {
	var principal string
	err := s.db.QueryRowContext(ctx,
		`SELECT principal FROM treasury_destination`).Scan(&principal)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select treasury destination: %w", err)
	}
	return domain.Principal(principal), nil
}

// RecordPayment upserts the paid flag and credits the balance in one
// transaction. A repeat payment overwrites the record and credits again.
func (s *Postgres) RecordPayment(ctx context.Context, payment *models.Payment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO fee_payments (project_id, payer, asset, amount, paid_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (project_id) DO UPDATE SET
			     payer = EXCLUDED.payer,
			     asset = EXCLUDED.asset,
			     amount = EXCLUDED.amount,
			     paid_at = EXCLUDED.paid_at`,
			uint64(payment.ProjectID), payment.Payer.String(), string(payment.Asset),
			payment.Amount, payment.PaidAt)
		if err != nil {
			return fmt.Errorf("upsert fee payment: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO treasury_balances (asset, balance) VALUES ($1, $2)
			 ON CONFLICT (asset) DO UPDATE SET balance = treasury_balances.balance + EXCLUDED.balance`,
			string(payment.Asset), payment.Amount)
		if err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}
		return nil
	})
}

func (s *Postgres) IsFeePaid(ctx context.Context, id domain.ProjectID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM fee_payments WHERE project_id = $1)`, uint64(id)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check fee payment: %w", err)
	}
	return exists, nil
}

func (s *Postgres) Balance(ctx context.Context, asset domain.Asset) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM treasury_balances WHERE asset = $1`, string(asset)).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select balance: %w", err)
	}
	return balance, nil
}

// Withdraw locks the balance row, runs transfer, and commits the debit in one
// transaction. A failed transfer rolls back without touching the balance.
func (s *Postgres) Withdraw(ctx context.Context, asset domain.Asset, amount int64, transfer func() error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var balance int64
		err := tx.QueryRowContext(ctx,
			`SELECT balance FROM treasury_balances WHERE asset = $1 FOR UPDATE`, string(asset)).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrInsufficient
		}
		if err != nil {
			return fmt.Errorf("select balance: %w", err)
		}
		if balance < amount {
			return sentinel.ErrInsufficient
		}
		if err := transfer(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE treasury_balances SET balance = balance - $1 WHERE asset = $2`,
			amount, string(asset))
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}
		return nil
	})
}

func (s *Postgres) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
