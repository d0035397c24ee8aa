package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cash movement types and channels. The cash register is the business's
// own money, independent of client ledgers: cash/transfer settlements and
// manual entries feed it.
const (
	CashIncome  = "INCOME"
	CashExpense = "EXPENSE"
)

// CashMovement is an immutable event in the business cash register.
// Movements are never modified or deleted.
type CashMovement struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type string    `gorm:"type:varchar(10);not null"`

	// PaymentMethod is the channel: CASH or TRANSFER.
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Concept       string          `gorm:"not null"`

	// ReferenceID links to the originating order, if any.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"index"`
}
