package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client is a route-sales customer with a running current account.
//
// MonetaryBalance and ContainerBalance are cached derivations of the
// client's ledgers: positive MonetaryBalance means the client owes money,
// positive ContainerBalance means the client holds returnable containers
// not yet given back. Both are written ONLY inside the same transaction
// that appends the corresponding ledger entry — never assigned ad hoc.
type Client struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name    string    `gorm:"index;not null"`
	Address string    `gorm:"not null"`
	Phone   *string
	Zone    *string

	MonetaryBalance  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ContainerBalance int             `gorm:"not null;default:0"`

	// LedgerHold blocks further postings after Reconcile detects a
	// cached-balance mismatch, until manually released.
	LedgerHold bool `gorm:"not null;default:false"`

	// IdempotencyKey dedupes retried registration requests.
	IdempotencyKey *string `gorm:"uniqueIndex"`

	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
