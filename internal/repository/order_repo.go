package repository

import (
	"context"
	"time"

	"soderia/internal/dto"
	"soderia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRepository defines the data access contract for orders.
//
// Status transitions are compare-and-swap updates: the WHERE clause guards
// the expected current state, RowsAffected tells the caller whether it won
// the race. Two concurrent deliver calls therefore serialize at the row —
// exactly one sees rows=1.
type OrderRepository interface {
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]model.Order, error)
	CountOpenByClient(ctx context.Context, clientID uuid.UUID) (int64, error)

	// CAS transitions — return rows affected (0 = precondition lost).
	ConfirmCAS(ctx context.Context, id uuid.UUID) (int64, error)
	CancelCASTx(tx *gorm.DB, id uuid.UUID) (int64, error)
	MarkDeliveredCASTx(tx *gorm.DB, id uuid.UUID, paymentMethod string, at time.Time) (int64, error)

	// Delivery assignment — conditional on CONFIRMED + unassigned.
	AssignDeliveryCASTx(tx *gorm.DB, orderID, deliveryID uuid.UUID) (int64, error)
	DetachDeliveryTx(tx *gorm.DB, orderID uuid.UUID) error
	DetachAllFromDeliveryTx(tx *gorm.DB, deliveryID uuid.UUID) error

	CreateItemTx(tx *gorm.DB, item *model.OrderItem) error
	UpdateTotalTx(tx *gorm.DB, orderID uuid.UUID, total decimal.Decimal) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	return &o, err
}

func (r *orderRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := tx.Preload("Items").First(&o, id).Error
	return &o, err
}

func (r *orderRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("idempotency_key = ?", key).First(&o).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("delivery_id = ?", deliveryID).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) CountOpenByClient(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("client_id = ? AND status IN ?", clientID, []string{model.OrderStatusDraft, model.OrderStatusConfirmed}).
		Count(&n).Error
	return n, err
}

func (r *orderRepo) ConfirmCAS(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, model.OrderStatusDraft).
		Update("status", model.OrderStatusConfirmed)
	return res.RowsAffected, res.Error
}

func (r *orderRepo) CancelCASTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.Model(&model.Order{}).
		Where("id = ? AND status IN ?", id, []string{model.OrderStatusDraft, model.OrderStatusConfirmed}).
		Updates(map[string]interface{}{"status": model.OrderStatusCancelled, "delivery_id": nil})
	return res.RowsAffected, res.Error
}

func (r *orderRepo) MarkDeliveredCASTx(tx *gorm.DB, id uuid.UUID, paymentMethod string, at time.Time) (int64, error) {
	res := tx.Model(&model.Order{}).
		Where("id = ? AND status = ? AND delivery_id IS NOT NULL", id, model.OrderStatusConfirmed).
		Updates(map[string]interface{}{
			"status":         model.OrderStatusDelivered,
			"payment_method": paymentMethod,
			"delivered_at":   at,
		})
	return res.RowsAffected, res.Error
}

func (r *orderRepo) AssignDeliveryCASTx(tx *gorm.DB, orderID, deliveryID uuid.UUID) (int64, error) {
	res := tx.Model(&model.Order{}).
		Where("id = ? AND status = ? AND delivery_id IS NULL", orderID, model.OrderStatusConfirmed).
		Update("delivery_id", deliveryID)
	return res.RowsAffected, res.Error
}

func (r *orderRepo) DetachDeliveryTx(tx *gorm.DB, orderID uuid.UUID) error {
	return tx.Model(&model.Order{}).Where("id = ?", orderID).Update("delivery_id", nil).Error
}

// Delivered members keep their delivery reference: the link documents
// which delivery settled them.
func (r *orderRepo) DetachAllFromDeliveryTx(tx *gorm.DB, deliveryID uuid.UUID) error {
	return tx.Model(&model.Order{}).
		Where("delivery_id = ? AND status <> ?", deliveryID, model.OrderStatusDelivered).
		Update("delivery_id", nil).Error
}

func (r *orderRepo) CreateItemTx(tx *gorm.DB, item *model.OrderItem) error {
	return tx.Create(item).Error
}

func (r *orderRepo) UpdateTotalTx(tx *gorm.DB, orderID uuid.UUID, total decimal.Decimal) error {
	return tx.Model(&model.Order{}).Where("id = ?", orderID).Update("total", total).Error
}

func (r *orderRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Order{}, id).Error
}
