package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CashMovementRequest struct {
	Type          string          `json:"type"           validate:"required,oneof=INCOME EXPENSE"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=CASH TRANSFER"`
	Amount        decimal.Decimal `json:"amount"         validate:"required"`
	Concept       string          `json:"concept"        validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CashMovementResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Concept       string          `json:"concept"`
	ReferenceID   *string         `json:"reference_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// CashBalanceResponse is Σ income − Σ expense, overall and per channel.
type CashBalanceResponse struct {
	Total    decimal.Decimal `json:"total"`
	Cash     decimal.Decimal `json:"cash"`
	Transfer decimal.Decimal `json:"transfer"`
}
