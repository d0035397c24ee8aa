package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// ClientFilter is bound from the query string of GET /v1/clientes.
type ClientFilter struct {
	Search          string `form:"buscar"`
	SortByDebt      bool   `form:"por_deuda"`
	IncludeInactive bool   `form:"inactivos"`
	Page            int    `form:"page,default=1"   validate:"min=1"`
	Limit           int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ClientListResponse struct {
	Data  []ClientResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegisterClientRequest struct {
	Name    string  `json:"name"    validate:"required,min=2"`
	Address string  `json:"address" validate:"required,min=2"`
	Phone   *string `json:"phone"`
	Zone    *string `json:"zone"`
	// IdempotencyKey dedupes retried submissions.
	IdempotencyKey *string `json:"idempotency_key" validate:"omitempty,uuid"`
}

type UpdateClientRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=2"`
	Address *string `json:"address" validate:"omitempty,min=2"`
	Phone   *string `json:"phone"`
	Zone    *string `json:"zone"`
}

type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}

type ChargeRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClientResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Address          string          `json:"address"`
	Phone            *string         `json:"phone,omitempty"`
	Zone             *string         `json:"zone,omitempty"`
	MonetaryBalance  decimal.Decimal `json:"monetary_balance"`
	ContainerBalance int             `json:"container_balance"`
	Active           bool            `json:"active"`
	CreatedAt        string          `json:"created_at"`
}

type LedgerEntryResponse struct {
	ID          string          `json:"id"`
	OrderID     *string         `json:"order_id,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Concept     string          `json:"concept"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

type ContainerEntryResponse struct {
	ID        string  `json:"id"`
	OrderID   *string `json:"order_id,omitempty"`
	Delta     int     `json:"delta"`
	Concept   string  `json:"concept"`
	CreatedAt string  `json:"created_at"`
}

// ReconcileResponse reports the integrity check outcome for one client.
type ReconcileResponse struct {
	ClientID         string          `json:"client_id"`
	Consistent       bool            `json:"consistent"`
	CachedMonetary   decimal.Decimal `json:"cached_monetary_balance"`
	LedgerMonetary   decimal.Decimal `json:"ledger_monetary_balance"`
	CachedContainers int             `json:"cached_container_balance"`
	LedgerContainers int             `json:"ledger_container_balance"`
}

// StatementResponse is the account summary used by the PDF/email flow.
type StatementResponse struct {
	Client     ClientResponse        `json:"client"`
	Entries    []LedgerEntryResponse `json:"entries"`
	Containers int                   `json:"containers"`
	Balance    decimal.Decimal       `json:"balance"`
}

type SendStatementRequest struct {
	ToEmail string `json:"to_email" validate:"required,email"`
}
