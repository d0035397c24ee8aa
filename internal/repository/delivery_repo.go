package repository

import (
	"context"

	"soderia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryRepository interface {
	CreateTx(tx *gorm.DB, d *model.Delivery) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	List(ctx context.Context, limit int) ([]model.Delivery, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	DB() *gorm.DB
}

type deliveryRepo struct{ db *gorm.DB }

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository { return &deliveryRepo{db: db} }

func (r *deliveryRepo) DB() *gorm.DB { return r.db }

func (r *deliveryRepo) CreateTx(tx *gorm.DB, d *model.Delivery) error {
	return tx.Create(d).Error
}

func (r *deliveryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	var d model.Delivery
	err := r.db.WithContext(ctx).Preload("Orders").Preload("Orders.Items").First(&d, id).Error
	return &d, err
}

func (r *deliveryRepo) List(ctx context.Context, limit int) ([]model.Delivery, error) {
	var deliveries []model.Delivery
	err := r.db.WithContext(ctx).Preload("Orders").
		Order("created_at DESC").
		Limit(limit).
		Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Delivery{}, id).Error
}
