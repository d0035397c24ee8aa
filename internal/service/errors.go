package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Typed error set surfaced by every service. Handlers map these to HTTP
// status codes with errors.As; callers can tell "fix your input"
// (ValidationError, TransitionError) apart from "something already
// happened, re-fetch" (ConflictError). The core never retries internally.

// ValidationError is bad input: non-positive amount, empty cart, invalid
// quantity. Recoverable by correcting the request.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func errInvalidAmount() error {
	return &ValidationError{Field: "amount", Msg: "debe ser mayor a cero"}
}

// NotFoundError is an unknown client/product/order/delivery id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Entity, e.ID)
}

func notFound(entity string, id uuid.UUID) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// TransitionError is an order state machine violation (e.g. confirming a
// cancelled order). Never retried.
type TransitionError struct {
	OrderID uuid.UUID
	From    string
	To      string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("pedido %s: transición %s → %s no permitida", e.OrderID, e.From, e.To)
}

// Conflict reasons. AlreadyDelivered / AlreadyAssigned mean the caller
// lost a race and may treat the outcome as success-if-already-done.
const (
	ConflictAlreadyDelivered = "ALREADY_DELIVERED"
	ConflictAlreadyAssigned  = "ALREADY_ASSIGNED"
	ConflictNotAssigned      = "NOT_ASSIGNED"
	ConflictNotConfirmed     = "NOT_CONFIRMED"
	ConflictCancelled        = "CANCELLED"
	ConflictHasReferences    = "HAS_REFERENCES"
)

// ConflictError reports a lost race or a precondition another actor
// already invalidated. Reason distinguishes the cause (the settlement
// engine's "order not ready for delivery" umbrella).
type ConflictError struct {
	Reason string
	Msg    string
}

func (e *ConflictError) Error() string { return e.Msg }

func conflict(reason, format string, args ...interface{}) error {
	return &ConflictError{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// IntegrityError is a reconciliation mismatch between a cached balance and
// its ledger sum. Fatal for the affected account: postings are held until
// the account is manually repaired. Never swallowed.
type IntegrityError struct {
	ClientID         uuid.UUID
	CachedMonetary   decimal.Decimal
	LedgerMonetary   decimal.Decimal
	CachedContainers int
	LedgerContainers int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf(
		"cliente %s: balances inconsistentes (caja: saldo %s vs libro %s, envases %d vs %d)",
		e.ClientID, e.CachedMonetary, e.LedgerMonetary, e.CachedContainers, e.LedgerContainers)
}
