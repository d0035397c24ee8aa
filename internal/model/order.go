package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order lifecycle. DELIVERED and CANCELLED are terminal.
const (
	OrderStatusDraft     = "DRAFT"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Settlement payment methods. MIXED (partial cash / partial account) is
// deliberately not supported.
const (
	PaymentCash           = "CASH"
	PaymentCurrentAccount = "CURRENT_ACCOUNT"
	PaymentTransfer       = "TRANSFER"
)

// Order is a cart of line items against a client.
//
// Items are immutable once the order leaves DRAFT; Total always equals the
// sum of item subtotals. DeliveryID is a nullable back-reference — the
// Delivery side holds no owning pointer, so detaching an order never
// destroys it.
type Order struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status   string    `gorm:"type:varchar(20);not null;default:'DRAFT';index"`

	Total decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	DeliveryID *uuid.UUID `gorm:"type:uuid;index"`

	// PaymentMethod is set at settlement time, never before.
	PaymentMethod *string `gorm:"type:varchar(20)"`
	DeliveredAt   *time.Time

	Notes *string

	// IdempotencyKey dedupes retried creation requests: a retry with the
	// same key resolves to the original order.
	IdempotencyKey *string `gorm:"uniqueIndex"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Client *Client     `gorm:"foreignKey:ClientID"`
	Items  []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is an order line with the unit price captured at creation.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity  int       `gorm:"not null"`

	// UnitPrice is the catalog price snapshot — later catalog changes do
	// not touch it.
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// IsReturnable snapshot, so settlement does not depend on the live
	// catalog flag.
	IsReturnable bool `gorm:"not null;default:false"`

	ProductName string `gorm:"not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
