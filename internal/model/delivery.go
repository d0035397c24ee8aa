package model

import (
	"time"

	"github.com/google/uuid"
)

// Delivery (reparto) groups confirmed orders dispatched together.
//
// Orders are non-owning references: deleting a Delivery detaches its
// orders, it never cascades onto them. Progress counters (orders /
// delivered) are always recomputed from member order status — there is no
// stored counter to drift.
type Delivery struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`

	// DriverID / WarehouseID are opaque assignment references.
	DriverID    *uuid.UUID `gorm:"type:uuid;index"`
	WarehouseID *uuid.UUID `gorm:"type:uuid"`

	Notes *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Orders []Order `gorm:"foreignKey:DeliveryID"`
}

// DeliveryProgress is the recomputed member summary.
type DeliveryProgress struct {
	OrdersCount    int `json:"orders_count"`
	DeliveredCount int `json:"delivered_count"`
}
