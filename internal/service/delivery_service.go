package service

import (
	"context"

	"soderia/internal/dto"
	"soderia/internal/model"
	"soderia/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryService groups confirmed orders into dispatches (repartos).
//
// A delivery holds non-owning order references: detaching or deleting a
// delivery frees its orders, it never cascades onto them. Progress is
// recomputed from member status on every read.
type DeliveryService interface {
	Create(ctx context.Context, req dto.CreateDeliveryRequest) (*dto.DeliveryResponse, error)
	DetachOrder(ctx context.Context, deliveryID, orderID uuid.UUID) error
	Delete(ctx context.Context, deliveryID uuid.UUID) error
	Progress(ctx context.Context, deliveryID uuid.UUID) (*model.DeliveryProgress, error)
	Get(ctx context.Context, deliveryID uuid.UUID) (*dto.DeliveryResponse, error)
	List(ctx context.Context, limit int) (*dto.DeliveryListResponse, error)
}

type deliveryService struct {
	repo      repository.DeliveryRepository
	orderRepo repository.OrderRepository
}

func NewDeliveryService(repo repository.DeliveryRepository, orderRepo repository.OrderRepository) DeliveryService {
	return &deliveryService{repo: repo, orderRepo: orderRepo}
}

// ── Create ───────────────────────────────────────────────────────────────────
// One transaction: the delivery row plus a conditional assignment per
// order (must be CONFIRMED and unassigned). Any order failing its
// precondition rolls back the whole group, so a delivery never commits
// with a partial member list.

func (s *deliveryService) Create(ctx context.Context, req dto.CreateDeliveryRequest) (*dto.DeliveryResponse, error) {
	orderIDs := make([]uuid.UUID, 0, len(req.OrderIDs))
	for _, raw := range req.OrderIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, &ValidationError{Field: "order_ids", Msg: "id inválido: " + raw}
		}
		orderIDs = append(orderIDs, id)
	}

	delivery := &model.Delivery{Notes: req.Notes}
	if req.DriverID != nil {
		id, err := uuid.Parse(*req.DriverID)
		if err != nil {
			return nil, &ValidationError{Field: "driver_id", Msg: "id inválido"}
		}
		delivery.DriverID = &id
	}
	if req.WarehouseID != nil {
		id, err := uuid.Parse(*req.WarehouseID)
		if err != nil {
			return nil, &ValidationError{Field: "warehouse_id", Msg: "id inválido"}
		}
		delivery.WarehouseID = &id
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, delivery); err != nil {
			return err
		}
		for _, oid := range orderIDs {
			rows, err := s.orderRepo.AssignDeliveryCASTx(tx, oid, delivery.ID)
			if err != nil {
				return err
			}
			if rows == 0 {
				return s.classifyAssignFailure(tx, oid)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, delivery.ID)
}

// classifyAssignFailure reloads the order inside the same transaction to
// report why the conditional assignment matched nothing.
func (s *deliveryService) classifyAssignFailure(tx *gorm.DB, orderID uuid.UUID) error {
	order, err := s.orderRepo.FindByIDTx(tx, orderID)
	if err != nil {
		return notFound("pedido", orderID)
	}
	if order.DeliveryID != nil {
		return conflict(ConflictAlreadyAssigned, "pedido %s ya pertenece a otro reparto", orderID)
	}
	return conflict(ConflictNotConfirmed, "pedido %s no está confirmado (estado %s)", orderID, order.Status)
}

// ── DetachOrder ──────────────────────────────────────────────────────────────
// Removes the reference only; order status is untouched.

func (s *deliveryService) DetachOrder(ctx context.Context, deliveryID, orderID uuid.UUID) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByIDTx(tx, orderID)
		if err != nil {
			return notFound("pedido", orderID)
		}
		if order.DeliveryID == nil || *order.DeliveryID != deliveryID {
			return conflict(ConflictNotAssigned, "pedido %s no pertenece al reparto %s", orderID, deliveryID)
		}
		return s.orderRepo.DetachDeliveryTx(tx, orderID)
	})
}

// ── Delete ───────────────────────────────────────────────────────────────────
// Frees all member orders (they stay in their current status — Confirmed
// members become assignable to a new delivery, Delivered members keep
// their ledger history untouched).

func (s *deliveryService) Delete(ctx context.Context, deliveryID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, deliveryID); err != nil {
		return notFound("reparto", deliveryID)
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.orderRepo.DetachAllFromDeliveryTx(tx, deliveryID); err != nil {
			return err
		}
		return s.repo.DeleteTx(tx, deliveryID)
	})
}

// ── Progress ─────────────────────────────────────────────────────────────────

func (s *deliveryService) Progress(ctx context.Context, deliveryID uuid.UUID) (*model.DeliveryProgress, error) {
	if _, err := s.repo.FindByID(ctx, deliveryID); err != nil {
		return nil, notFound("reparto", deliveryID)
	}
	orders, err := s.orderRepo.ListByDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	return computeProgress(orders), nil
}

func computeProgress(orders []model.Order) *model.DeliveryProgress {
	p := &model.DeliveryProgress{OrdersCount: len(orders)}
	for _, o := range orders {
		if o.Status == model.OrderStatusDelivered {
			p.DeliveredCount++
		}
	}
	return p
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *deliveryService) Get(ctx context.Context, deliveryID uuid.UUID) (*dto.DeliveryResponse, error) {
	delivery, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		return nil, notFound("reparto", deliveryID)
	}
	return deliveryToResponse(delivery, true), nil
}

func (s *deliveryService) List(ctx context.Context, limit int) (*dto.DeliveryListResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	deliveries, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.DeliveryResponse, 0, len(deliveries))
	for i := range deliveries {
		items = append(items, *deliveryToResponse(&deliveries[i], false))
	}
	return &dto.DeliveryListResponse{Data: items}, nil
}

func deliveryToResponse(d *model.Delivery, includeOrders bool) *dto.DeliveryResponse {
	progress := computeProgress(d.Orders)
	resp := &dto.DeliveryResponse{
		ID:             d.ID.String(),
		Notes:          d.Notes,
		OrdersCount:    progress.OrdersCount,
		DeliveredCount: progress.DeliveredCount,
		CreatedAt:      d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if d.DriverID != nil {
		id := d.DriverID.String()
		resp.DriverID = &id
	}
	if d.WarehouseID != nil {
		id := d.WarehouseID.String()
		resp.WarehouseID = &id
	}
	if includeOrders {
		for i := range d.Orders {
			resp.Orders = append(resp.Orders, *orderToResponse(&d.Orders[i]))
		}
	}
	return resp
}
