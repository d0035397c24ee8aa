package repository

import (
	"context"

	"soderia/internal/dto"
	"soderia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClientRepository defines the data access contract for clients and their
// cached balances. Balance deltas are Tx-only: they must run inside the
// same transaction that appends the ledger entry.
type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Client, error)
	FindByNameAddress(ctx context.Context, name, address string) (*model.Client, error)
	List(ctx context.Context, filter dto.ClientFilter) ([]model.Client, int64, error)
	Debtors(ctx context.Context) ([]model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetLedgerHold(ctx context.Context, id uuid.UUID, hold bool) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Used inside transactions — callers must pass the tx instance.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Client, error)
	ApplyMonetaryDeltaTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
	ApplyContainerDeltaTx(tx *gorm.DB, id uuid.UUID, delta int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) DB() *gorm.DB { return r.db }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *clientRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := tx.First(&c, id).Error
	return &c, err
}

func (r *clientRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&c).Error
	return &c, err
}

func (r *clientRepo) FindByNameAddress(ctx context.Context, name, address string) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND LOWER(address) = LOWER(?)", name, address).
		First(&c).Error
	return &c, err
}

func (r *clientRepo) List(ctx context.Context, filter dto.ClientFilter) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Client{})
	if filter.Search != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if !filter.IncludeInactive {
		q = q.Where("active = true")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "name ASC"
	if filter.SortByDebt {
		order = "monetary_balance DESC"
	}
	err := q.Order(order).Offset(offset).Limit(filter.Limit).Find(&clients).Error
	return clients, total, err
}

func (r *clientRepo) Debtors(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	err := r.db.WithContext(ctx).
		Where("monetary_balance > 0 AND active = true").
		Order("monetary_balance DESC").
		Find(&clients).Error
	return clients, err
}

func (r *clientRepo) Update(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clientRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Update("active", active).Error
}

func (r *clientRepo) SetLedgerHold(ctx context.Context, id uuid.UUID, hold bool) error {
	return r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Update("ledger_hold", hold).Error
}

func (r *clientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Client{}, id).Error
}

// ApplyMonetaryDeltaTx increments the cached balance in-place so two
// concurrent postings for the same client never lose an update.
func (r *clientRepo) ApplyMonetaryDeltaTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.Client{}).Where("id = ?", id).
		Update("monetary_balance", gorm.Expr("monetary_balance + ?", delta)).Error
}

func (r *clientRepo) ApplyContainerDeltaTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Client{}).Where("id = ?", id).
		Update("container_balance", gorm.Expr("container_balance + ?", delta)).Error
}
