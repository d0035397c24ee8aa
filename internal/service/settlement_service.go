package service

import (
	"context"
	"fmt"
	"time"

	"soderia/internal/dto"
	"soderia/internal/model"
	"soderia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SettlementService settles orders at the client's door. Everything a
// delivery implies — the status transition, the monetary posting and the
// container netting — commits in one transaction, so a crash mid-settlement
// leaves no half-delivered order.
type SettlementService interface {
	Deliver(ctx context.Context, orderID uuid.UUID, req dto.DeliverOrderRequest, userID *uuid.UUID) (*dto.SettlementResponse, error)
}

type settlementService struct {
	orderRepo repository.OrderRepository
	ledger    LedgerService
	cashRepo  repository.CashRepository
}

func NewSettlementService(orderRepo repository.OrderRepository, ledger LedgerService, cashRepo repository.CashRepository) SettlementService {
	return &settlementService{orderRepo: orderRepo, ledger: ledger, cashRepo: cashRepo}
}

// Deliver marks a confirmed, assigned order as delivered and posts its
// financial effects.
//
// The transition is a conditional UPDATE (status must be CONFIRMED and the
// order must belong to a delivery): two drivers settling the same order
// concurrently race on that row and exactly one wins — the loser gets its
// failure classified against the order's actual state.
//
// Payment routing:
//   - CURRENT_ACCOUNT ⇒ DEBIT ledger entry for the order total (the client
//     now owes it).
//   - CASH / TRANSFER ⇒ INCOME cash movement on that channel; client
//     balances untouched.
//
// Container netting: the returnables issued by this order minus the
// containers the client hands back, posted as at most one container ledger
// entry. A net of zero posts nothing.
func (s *settlementService) Deliver(ctx context.Context, orderID uuid.UUID, req dto.DeliverOrderRequest, userID *uuid.UUID) (*dto.SettlementResponse, error) {
	var resp *dto.SettlementResponse
	now := time.Now().UTC()

	err := runTx(ctx, s.orderRepo.DB(), func(tx *gorm.DB) error {
		rows, err := s.orderRepo.MarkDeliveredCASTx(tx, orderID, req.PaymentMethod, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return s.classifyDeliverFailure(tx, orderID)
		}

		order, err := s.orderRepo.FindByIDTx(tx, orderID)
		if err != nil {
			return err
		}

		result := &dto.SettlementResponse{Order: *orderToResponse(order)}

		switch req.PaymentMethod {
		case model.PaymentCurrentAccount:
			entry, err := s.ledger.PostTx(tx, PostEntryInput{
				ClientID:    order.ClientID,
				Type:        model.LedgerDebit,
				Amount:      order.Total,
				Concept:     fmt.Sprintf("Pedido #%s (Entregado)", shortID(order.ID)),
				Description: req.Notes,
				OrderID:     &order.ID,
				CreatedBy:   userID,
			})
			if err != nil {
				return err
			}
			id := entry.ID.String()
			result.LedgerEntryID = &id

		case model.PaymentCash, model.PaymentTransfer:
			concept := fmt.Sprintf("Cobro pedido #%s", shortID(order.ID))
			if req.PaymentMethod == model.PaymentTransfer && req.TransferRef != nil {
				concept += " ref " + *req.TransferRef
			}
			mv := &model.CashMovement{
				Type:          model.CashIncome,
				PaymentMethod: req.PaymentMethod,
				Amount:        order.Total,
				Concept:       concept,
				ReferenceID:   &order.ID,
				CreatedBy:     userID,
			}
			if err := s.cashRepo.CreateTx(tx, mv); err != nil {
				return err
			}
			id := mv.ID.String()
			result.CashMovementID = &id

		default:
			return &ValidationError{Field: "payment_method", Msg: "método de pago inválido: " + req.PaymentMethod}
		}

		issued := 0
		for _, it := range order.Items {
			if it.IsReturnable {
				issued += it.Quantity
			}
		}
		net := issued - req.ReturnedContainers
		result.ContainerDelta = net
		if net != 0 {
			_, err := s.ledger.PostContainerTx(tx, PostContainerInput{
				ClientID:  order.ClientID,
				Delta:     net,
				Concept:   fmt.Sprintf("Entrega pedido #%s: %d entregados, %d devueltos", shortID(order.ID), issued, req.ReturnedContainers),
				OrderID:   &order.ID,
				CreatedBy: userID,
			})
			if err != nil {
				return err
			}
		}

		resp = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("order_id", orderID.String()).
		Str("payment_method", req.PaymentMethod).
		Int("container_delta", resp.ContainerDelta).
		Msg("pedido entregado")
	return resp, nil
}

// classifyDeliverFailure reloads the order within the running transaction
// and maps the state found to the precise conflict the caller hit.
func (s *settlementService) classifyDeliverFailure(tx *gorm.DB, orderID uuid.UUID) error {
	order, err := s.orderRepo.FindByIDTx(tx, orderID)
	if err != nil {
		return notFound("pedido", orderID)
	}
	switch order.Status {
	case model.OrderStatusDelivered:
		return conflict(ConflictAlreadyDelivered, "pedido %s ya fue entregado", orderID)
	case model.OrderStatusCancelled:
		return conflict(ConflictCancelled, "pedido %s está cancelado", orderID)
	case model.OrderStatusConfirmed:
		// Status matched but the delivery guard didn't.
		return conflict(ConflictNotAssigned, "pedido %s no está asignado a un reparto", orderID)
	default:
		return conflict(ConflictNotConfirmed, "pedido %s no está confirmado (estado %s)", orderID, order.Status)
	}
}

// shortID keeps receipts readable: the first uuid block is enough to
// identify an order at the counter.
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
