package models

import (
	"time"

	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
)

// MaxFeeAmount bounds both fee amounts (base units). The guard exists so a
// mistyped admin call cannot configure an absurd fee and lock every caller
// out of the paid workflow.
const MaxFeeAmount int64 = 1_000_000_000

// FeeConfig is the singleton fee configuration.
//
// Invariants:
//   - Both fee amounts are non-negative and at most MaxFeeAmount
//   - Treasury destination is non-empty
//   - Only an admin may write it (enforced by the service)
type FeeConfig struct {
	Asset           domain.Asset     `json:"asset,omitempty"` // empty = platform-native
	VerificationFee int64            `json:"verification_fee"`
	RegistrationFee int64            `json:"registration_fee"`
	Treasury        domain.Principal `json:"treasury"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func NewFeeConfig(asset domain.Asset, verificationFee, registrationFee int64, treasury domain.Principal, now time.Time) (*FeeConfig, error) {
	if verificationFee < 0 || registrationFee < 0 ||
		verificationFee > MaxFeeAmount || registrationFee > MaxFeeAmount {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid fee amount")
	}
	if treasury.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "treasury destination is required")
	}
	return &FeeConfig{
		Asset:           asset,
		VerificationFee: verificationFee,
		RegistrationFee: registrationFee,
		Treasury:        treasury,
		UpdatedAt:       now,
	}, nil
}

// Payment records that the verification fee was collected for a project. The
// flag is boolean by design: paying twice debits the payer twice but leaves a
// single flag set.
type Payment struct {
	ProjectID domain.ProjectID `json:"project_id"`
	Payer     domain.Principal `json:"payer"`
	Asset     domain.Asset     `json:"asset,omitempty"`
	Amount    int64            `json:"amount"`
	PaidAt    time.Time        `json:"paid_at"`
}
