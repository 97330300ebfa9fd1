package handler

import (
	"strings"

	"projecthub/internal/treasury/models"
	dErrors "projecthub/pkg/domain-errors"
)

// SetFeeRequest is the HTTP request body for POST /admin/fees.
type SetFeeRequest struct {
	Asset           string `json:"asset,omitempty"`
	VerificationFee int64  `json:"verification_fee"`
	RegistrationFee int64  `json:"registration_fee"`
	Treasury        string `json:"treasury"`
}

// Validate validates and normalizes the request. Amount bounds are enforced
// again by the model; this catches the obvious cases at the edge.
func (r *SetFeeRequest) Validate() error {
	r.Asset = strings.TrimSpace(r.Asset)
	r.Treasury = strings.TrimSpace(r.Treasury)
	if r.VerificationFee < 0 || r.RegistrationFee < 0 ||
		r.VerificationFee > models.MaxFeeAmount || r.RegistrationFee > models.MaxFeeAmount {
		return dErrors.New(dErrors.CodeValidation, "invalid fee amount")
	}
	if r.Treasury == "" {
		return dErrors.New(dErrors.CodeValidation, "treasury is required")
	}
	return nil
}

// SetTreasuryRequest is the HTTP request body for POST /admin/treasury.
type SetTreasuryRequest struct {
	Treasury string `json:"treasury"`
}

// Validate validates and normalizes the request.
func (r *SetTreasuryRequest) Validate() error {
	r.Treasury = strings.TrimSpace(r.Treasury)
	if r.Treasury == "" {
		return dErrors.New(dErrors.CodeValidation, "treasury is required")
	}
	return nil
}

// WithdrawRequest is the HTTP request body for POST /admin/treasury/withdrawals.
type WithdrawRequest struct {
	Asset       string `json:"asset,omitempty"`
	Amount      int64  `json:"amount"`
	Destination string `json:"destination,omitempty"`
}

// Validate validates and normalizes the request. An empty destination falls
// back to the configured treasury.
func (r *WithdrawRequest) Validate() error {
	r.Asset = strings.TrimSpace(r.Asset)
	r.Destination = strings.TrimSpace(r.Destination)
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}
