package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateDeliveryRequest struct {
	OrderIDs    []string `json:"order_ids" validate:"required,min=1,dive,uuid"`
	DriverID    *string  `json:"driver_id" validate:"omitempty,uuid"`
	WarehouseID *string  `json:"warehouse_id" validate:"omitempty,uuid"`
	Notes       *string  `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DeliveryResponse struct {
	ID             string          `json:"id"`
	DriverID       *string         `json:"driver_id,omitempty"`
	WarehouseID    *string         `json:"warehouse_id,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	OrdersCount    int             `json:"orders_count"`
	DeliveredCount int             `json:"delivered_count"`
	Orders         []OrderResponse `json:"orders,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

type DeliveryListResponse struct {
	Data []DeliveryResponse `json:"data"`
}
