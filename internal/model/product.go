package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is catalog reference data. Price changes only apply to orders
// created afterwards: each order line captures the price at creation time.
type Product struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code string    `gorm:"uniqueIndex;not null"`
	Name string    `gorm:"index;not null"`

	Price decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// IsReturnable marks products sold in returnable containers (sodas,
	// demijohns). Delivering them moves the client's container balance.
	IsReturnable bool `gorm:"not null;default:false"`

	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
