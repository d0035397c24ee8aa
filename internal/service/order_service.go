package service

import (
	"context"
	"errors"

	"soderia/internal/dto"
	"soderia/internal/model"
	"soderia/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService owns the order state machine:
// DRAFT → CONFIRMED → DELIVERED, with CANCELLED reachable from DRAFT and
// CONFIRMED. DELIVERED and CANCELLED are terminal. Items are immutable
// once the order leaves DRAFT.
type OrderService interface {
	Create(ctx context.Context, userID *uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	AddItem(ctx context.Context, orderID uuid.UUID, req dto.AddOrderItemRequest) (*dto.OrderResponse, error)
	Confirm(ctx context.Context, orderID uuid.UUID) (*dto.OrderResponse, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*dto.OrderResponse, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	Get(ctx context.Context, orderID uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
}

type orderService struct {
	repo       repository.OrderRepository
	clientRepo repository.ClientRepository
	catalog    Catalog
}

func NewOrderService(repo repository.OrderRepository, clientRepo repository.ClientRepository, catalog Catalog) OrderService {
	return &orderService{repo: repo, clientRepo: clientRepo, catalog: catalog}
}

// ── Create ───────────────────────────────────────────────────────────────────
// Captures each item's current catalog price as the immutable unit price.
// Idempotent: a retry carrying the same idempotency key resolves to the
// original order, including when two duplicates race (unique index on the
// key decides the winner; the loser re-reads).

func (s *orderService) Create(ctx context.Context, userID *uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Msg: "el pedido no tiene items"}
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, &ValidationError{Field: "client_id", Msg: "id inválido"}
	}

	// Idempotency replay — fast path before doing any work.
	if req.IdempotencyKey != nil {
		if existing, ferr := s.repo.FindByIdempotencyKey(ctx, *req.IdempotencyKey); ferr == nil {
			return orderToResponse(existing), nil
		}
	}

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return nil, notFound("cliente", clientID)
	}
	if !client.Active {
		return nil, &ValidationError{Field: "client_id", Msg: "el cliente está inactivo"}
	}

	// Resolve catalog snapshot outside the insert transaction.
	items := make([]model.OrderItem, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, &ValidationError{Field: "quantity", Msg: "debe ser al menos 1"}
		}
		pid, perr := uuid.Parse(it.ProductID)
		if perr != nil {
			return nil, &ValidationError{Field: "product_id", Msg: "id inválido"}
		}
		product, perr := s.catalog.GetProduct(ctx, pid)
		if perr != nil {
			return nil, perr
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(subtotal)
		items = append(items, model.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     it.Quantity,
			UnitPrice:    product.Price,
			Subtotal:     subtotal,
			IsReturnable: product.IsReturnable,
		})
	}

	order := &model.Order{
		ClientID:       clientID,
		Status:         model.OrderStatusDraft,
		Total:          total,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      userID,
		Items:          items,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.CreateTx(tx, order)
	})
	if txErr != nil {
		// Duplicate idempotency key: a concurrent duplicate won the
		// insert — return its order instead of failing.
		if errors.Is(txErr, gorm.ErrDuplicatedKey) && req.IdempotencyKey != nil {
			if existing, ferr := s.repo.FindByIdempotencyKey(ctx, *req.IdempotencyKey); ferr == nil {
				return orderToResponse(existing), nil
			}
		}
		return nil, txErr
	}
	return orderToResponse(order), nil
}

// ── AddItem ──────────────────────────────────────────────────────────────────
// Legal only while DRAFT. The item insert and the total update commit
// together so Total == Σ subtotals holds at every point in time.

func (s *orderService) AddItem(ctx context.Context, orderID uuid.UUID, req dto.AddOrderItemRequest) (*dto.OrderResponse, error) {
	if req.Quantity < 1 {
		return nil, &ValidationError{Field: "quantity", Msg: "debe ser al menos 1"}
	}
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, &ValidationError{Field: "product_id", Msg: "id inválido"}
	}
	product, err := s.catalog.GetProduct(ctx, pid)
	if err != nil {
		return nil, err
	}

	var updated *model.Order
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		order, ferr := s.repo.FindByIDTx(tx, orderID)
		if ferr != nil {
			return notFound("pedido", orderID)
		}
		if order.Status != model.OrderStatusDraft {
			return &TransitionError{OrderID: orderID, From: order.Status, To: order.Status}
		}

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
		item := &model.OrderItem{
			OrderID:      order.ID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     req.Quantity,
			UnitPrice:    product.Price,
			Subtotal:     subtotal,
			IsReturnable: product.IsReturnable,
		}
		if cerr := s.repo.CreateItemTx(tx, item); cerr != nil {
			return cerr
		}

		newTotal := order.Total.Add(subtotal)
		if uerr := s.repo.UpdateTotalTx(tx, order.ID, newTotal); uerr != nil {
			return uerr
		}
		order.Items = append(order.Items, *item)
		order.Total = newTotal
		updated = order
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return orderToResponse(updated), nil
}

// ── Confirm ──────────────────────────────────────────────────────────────────

func (s *orderService) Confirm(ctx context.Context, orderID uuid.UUID) (*dto.OrderResponse, error) {
	rows, err := s.repo.ConfirmCAS(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		order, ferr := s.repo.FindByID(ctx, orderID)
		if ferr != nil {
			return nil, notFound("pedido", orderID)
		}
		return nil, &TransitionError{OrderID: orderID, From: order.Status, To: model.OrderStatusConfirmed}
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return orderToResponse(order), nil
}

// ── Cancel ───────────────────────────────────────────────────────────────────
// Detaches from any delivery in the same update. No ledger reversal is
// needed: DRAFT/CONFIRMED orders never posted ledger entries.

func (s *orderService) Cancel(ctx context.Context, orderID uuid.UUID) (*dto.OrderResponse, error) {
	var cancelled *model.Order
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		rows, err := s.repo.CancelCASTx(tx, orderID)
		if err != nil {
			return err
		}
		if rows == 0 {
			order, ferr := s.repo.FindByIDTx(tx, orderID)
			if ferr != nil {
				return notFound("pedido", orderID)
			}
			return &TransitionError{OrderID: orderID, From: order.Status, To: model.OrderStatusCancelled}
		}
		order, ferr := s.repo.FindByIDTx(tx, orderID)
		if ferr != nil {
			return ferr
		}
		cancelled = order
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return orderToResponse(cancelled), nil
}

// ── Delete ───────────────────────────────────────────────────────────────────
// Never permitted once DELIVERED: the order backs ledger entries.

func (s *orderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDTx(tx, orderID)
		if err != nil {
			return notFound("pedido", orderID)
		}
		if order.Status != model.OrderStatusDraft && order.Status != model.OrderStatusConfirmed {
			return &TransitionError{OrderID: orderID, From: order.Status, To: "DELETED"}
		}
		if order.DeliveryID != nil {
			if derr := s.repo.DetachDeliveryTx(tx, orderID); derr != nil {
				return derr
			}
		}
		return s.repo.DeleteTx(tx, orderID)
	})
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound("pedido", orderID)
	}
	return orderToResponse(order), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, *orderToResponse(&orders[i]))
	}
	return &dto.OrderListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func orderToResponse(o *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:    it.ProductID.String(),
			Product:      it.ProductName,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			Subtotal:     it.Subtotal,
			IsReturnable: it.IsReturnable,
		})
	}

	resp := &dto.OrderResponse{
		ID:            o.ID.String(),
		ClientID:      o.ClientID.String(),
		Status:        o.Status,
		Total:         o.Total,
		Items:         items,
		PaymentMethod: o.PaymentMethod,
		Notes:         o.Notes,
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if o.DeliveryID != nil {
		id := o.DeliveryID.String()
		resp.DeliveryID = &id
	}
	if o.DeliveredAt != nil {
		t := o.DeliveredAt.Format("2006-01-02T15:04:05Z")
		resp.DeliveredAt = &t
	}
	return resp
}

