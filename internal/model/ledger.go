package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger entry types. DEBIT increases what the client owes, CREDIT is a
// payment that decreases it.
const (
	LedgerDebit  = "DEBIT"
	LedgerCredit = "CREDIT"
)

// LedgerEntry is an immutable event in a client's current account.
// Entries are NEVER updated or deleted — corrections are new offsetting
// entries. The client's cached MonetaryBalance equals
// Σ(DEBIT amounts) − Σ(CREDIT amounts) at all times.
type LedgerEntry struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index"`
	// OrderID links settlement entries to their order; manual payments
	// and charges have none.
	OrderID *uuid.UUID `gorm:"type:uuid"`

	Type        string          `gorm:"type:varchar(10);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Concept     string          `gorm:"not null"`
	Description *string

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"index"`
}

// ContainerLedgerEntry is an immutable event in a client's returnable
// container account. Positive delta = containers handed out and not yet
// returned, negative = containers returned. The client's cached
// ContainerBalance equals Σ(delta) at all times.
type ContainerLedgerEntry struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientID uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderID  *uuid.UUID `gorm:"type:uuid"`

	Delta   int    `gorm:"not null"`
	Concept string `gorm:"not null"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"index"`
}

// TableName overrides GORM's pluralization (container_ledger_entrys).
func (ContainerLedgerEntry) TableName() string { return "container_ledger_entries" }

// TableName overrides GORM's pluralization (ledger_entrys).
func (LedgerEntry) TableName() string { return "ledger_entries" }
