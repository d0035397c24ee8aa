package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// OrderFilter is bound from the query string of GET /v1/pedidos.
type OrderFilter struct {
	ClientID string `form:"cliente_id" validate:"omitempty,uuid"`
	Status   string `form:"estado"     validate:"omitempty,oneof=DRAFT CONFIRMED DELIVERED CANCELLED all"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type CreateOrderRequest struct {
	ClientID string             `json:"client_id" validate:"required,uuid"`
	Items    []OrderItemRequest `json:"items"     validate:"required,min=1,dive"`
	Notes    *string            `json:"notes"`
	// IdempotencyKey: a retry with the same key returns the original order
	// instead of creating a duplicate.
	IdempotencyKey *string `json:"idempotency_key" validate:"omitempty,uuid"`
}

type AddOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

// DeliverOrderRequest settles one order at the client's door.
type DeliverOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=CASH CURRENT_ACCOUNT TRANSFER"`
	// ReturnedContainers nets against the returnables issued by this order.
	ReturnedContainers int     `json:"returned_containers" validate:"min=0"`
	TransferRef        *string `json:"transfer_ref"`
	Notes              *string `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ProductID    string          `json:"product_id"`
	Product      string          `json:"product"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	IsReturnable bool            `json:"is_returnable"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	ClientID      string              `json:"client_id"`
	Status        string              `json:"status"`
	Total         decimal.Decimal     `json:"total"`
	Items         []OrderItemResponse `json:"items"`
	DeliveryID    *string             `json:"delivery_id,omitempty"`
	PaymentMethod *string             `json:"payment_method,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	CreatedAt     string              `json:"created_at"`
	DeliveredAt   *string             `json:"delivered_at,omitempty"`
}

// SettlementResponse is the outcome of delivering one order.
type SettlementResponse struct {
	Order OrderResponse `json:"order"`
	// ContainerDelta is the net container movement posted (0 = no entry).
	ContainerDelta int `json:"container_delta"`
	// LedgerEntryID is set for CURRENT_ACCOUNT settlements.
	LedgerEntryID *string `json:"ledger_entry_id,omitempty"`
	// CashMovementID is set for CASH / TRANSFER settlements.
	CashMovementID *string `json:"cash_movement_id,omitempty"`
}
